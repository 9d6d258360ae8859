package domain

import (
	"errors"
	"regexp"
	"testing"
)

func validStationInfo() StationInfo {
	return StationInfo{
		FullName:    "Ada Obi",
		Email:       "ada@station.example",
		Phone:       "08012345678",
		StationName: "Mega Fuel Station",
		StationType: "Petrol Station",
		Zone:        "South West",
		State:       "Lagos",
		LGA:         "Ikeja",
		Address:     "12 Allen Avenue",
	}
}

func TestStationInfoValidate(t *testing.T) {
	if err := validStationInfo().Validate(); err != nil {
		t.Fatalf("valid info rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*StationInfo)
	}{
		{"missing name", func(i *StationInfo) { i.FullName = "  " }},
		{"missing email", func(i *StationInfo) { i.Email = "" }},
		{"missing phone", func(i *StationInfo) { i.Phone = "" }},
		{"missing station name", func(i *StationInfo) { i.StationName = "" }},
		{"missing lga", func(i *StationInfo) { i.LGA = "" }},
		{"bad email", func(i *StationInfo) { i.Email = "ada at example" }},
		{"bad phone", func(i *StationInfo) { i.Phone = "call me" }},
		{"phone too short", func(i *StationInfo) { i.Phone = "1234" }},
		{"unknown type", func(i *StationInfo) { i.StationType = "Charging Hub" }},
		{"unknown zone", func(i *StationInfo) { i.Zone = "Far West" }},
		{"state outside zone", func(i *StationInfo) { i.State = "Kano" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := validStationInfo()
			tt.mutate(&info)
			err := info.Validate()
			if err == nil {
				t.Fatal("Validate() accepted invalid info")
			}
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestStationInfoValidateAcceptsInternationalPhone(t *testing.T) {
	info := validStationInfo()
	info.Phone = "+234 801 234 5678"
	if err := info.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestRegionsCoverAllZones(t *testing.T) {
	if len(Regions) != 6 {
		t.Errorf("len(Regions) = %d, want 6", len(Regions))
	}
	seen := make(map[string]string)
	for zone, states := range Regions {
		if len(states) == 0 {
			t.Errorf("zone %q has no states", zone)
		}
		for _, s := range states {
			if prev, ok := seen[s]; ok {
				t.Errorf("state %q in both %q and %q", s, prev, zone)
			}
			seen[s] = zone
		}
	}
	// 36 states plus the FCT.
	if len(seen) != 37 {
		t.Errorf("total states = %d, want 37", len(seen))
	}
}

func TestNewSubmissionID(t *testing.T) {
	re := regexp.MustCompile(`^STN-[0-9A-F]{8}$`)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewSubmissionID()
		if !re.MatchString(id) {
			t.Fatalf("id %q does not match STN-XXXXXXXX", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}
