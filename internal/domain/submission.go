package domain

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Regions maps geopolitical zones to their states. Station info validation
// requires the selected state to belong to the selected zone.
var Regions = map[string][]string{
	"North Central": {"Benue", "Kogi", "Kwara", "Nasarawa", "Niger", "Plateau", "FCT"},
	"North East":    {"Adamawa", "Bauchi", "Borno", "Gombe", "Taraba", "Yobe"},
	"North West":    {"Jigawa", "Kaduna", "Kano", "Katsina", "Kebbi", "Sokoto", "Zamfara"},
	"South East":    {"Abia", "Anambra", "Ebonyi", "Enugu", "Imo"},
	"South South":   {"Akwa Ibom", "Bayelsa", "Cross River", "Delta", "Edo", "Rivers"},
	"South West":    {"Ekiti", "Lagos", "Ogun", "Ondo", "Osun", "Oyo"},
}

// StationTypes are the accepted station classifications.
var StationTypes = []string{"Petrol Station", "Gas Station", "Diesel Depot", "Multi-Fuel Station"}

var (
	emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phoneRe = regexp.MustCompile(`^\+?\d{7,15}$`)
)

// StationInfo holds the owner and station fields collected on the info step.
type StationInfo struct {
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	StationName string `json:"station_name"`
	StationType string `json:"station_type"`
	Zone        string `json:"geopolitical_zone"`
	State       string `json:"state"`
	LGA         string `json:"lga"`
	Address     string `json:"address"`
}

// Validate checks all required fields and the zone/state pairing.
func (i StationInfo) Validate() error {
	missing := func(field string) error {
		return NewDomainError("StationInfo.Validate", ErrInvalidInput, field+" is required")
	}
	switch {
	case strings.TrimSpace(i.FullName) == "":
		return missing("full_name")
	case strings.TrimSpace(i.Email) == "":
		return missing("email")
	case strings.TrimSpace(i.Phone) == "":
		return missing("phone")
	case strings.TrimSpace(i.StationName) == "":
		return missing("station_name")
	case strings.TrimSpace(i.LGA) == "":
		return missing("lga")
	}
	if !emailRe.MatchString(i.Email) {
		return NewDomainError("StationInfo.Validate", ErrInvalidInput, "email is malformed")
	}
	if !phoneRe.MatchString(strings.ReplaceAll(i.Phone, " ", "")) {
		return NewDomainError("StationInfo.Validate", ErrInvalidInput, "phone is malformed")
	}

	validType := false
	for _, t := range StationTypes {
		if i.StationType == t {
			validType = true
			break
		}
	}
	if !validType {
		return NewDomainError("StationInfo.Validate", ErrInvalidInput,
			fmt.Sprintf("station_type %q is not recognized", i.StationType))
	}

	states, ok := Regions[i.Zone]
	if !ok {
		return NewDomainError("StationInfo.Validate", ErrInvalidInput,
			fmt.Sprintf("geopolitical_zone %q is not recognized", i.Zone))
	}
	for _, s := range states {
		if i.State == s {
			return nil
		}
	}
	return NewDomainError("StationInfo.Validate", ErrInvalidInput,
		fmt.Sprintf("state %q is not in zone %q", i.State, i.Zone))
}

// SubmissionStatus tracks the review state of a stored submission.
type SubmissionStatus string

const (
	StatusPending  SubmissionStatus = "pending"
	StatusApproved SubmissionStatus = "approved"
	StatusRejected SubmissionStatus = "rejected"
)

// PhotoMeta records when and where a station photo was taken.
type PhotoMeta struct {
	CapturedAt time.Time `json:"captured_at"`
	Latitude   *float64  `json:"latitude,omitempty"`
	Longitude  *float64  `json:"longitude,omitempty"`
}

// Submission is one completed registration as handed to the store. The
// location fields are the bridge's output verbatim; the store never
// re-derives them.
type Submission struct {
	ID             string
	Info           StationInfo
	Latitude       float64
	Longitude      float64
	AccuracyMeters float64
	LocationSource string
	SubmittedAt    time.Time
	Status         SubmissionStatus
	Photo          []byte
	PhotoMeta      *PhotoMeta
}

// NewSubmissionID generates a short submission reference like STN-3FA94C21.
func NewSubmissionID() string {
	var b [4]byte
	_, _ = rand.Read(b[:])
	return "STN-" + strings.ToUpper(hex.EncodeToString(b[:]))
}

// SubmissionStats summarizes stored submissions for the dashboard.
type SubmissionStats struct {
	Total       int            `json:"total"`
	GPSCaptures int            `json:"gps_captures"`
	Pending     int            `json:"pending"`
	ByZone      map[string]int `json:"by_zone"`
}

// SubmissionStore persists completed registrations.
type SubmissionStore interface {
	Create(ctx context.Context, s *Submission) error
	Get(ctx context.Context, id string) (*Submission, error)
	List(ctx context.Context) ([]*Submission, error)
	UpdateStatus(ctx context.Context, id string, status SubmissionStatus) error
	Stats(ctx context.Context) (*SubmissionStats, error)
}

// AdminUser is a dashboard operator credential record.
type AdminUser struct {
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// AdminStore persists dashboard operator accounts.
type AdminStore interface {
	GetAdmin(ctx context.Context, username string) (*AdminUser, error)
	CreateAdmin(ctx context.Context, u *AdminUser) error
}
