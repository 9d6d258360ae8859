package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/DCloudHub/station-onboarding/internal/domain"
)

// SQLiteStore implements domain.SubmissionStore and domain.AdminStore on a
// single SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath and runs the
// schema migration.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open submissions db: %w", err)
	}
	// WAL mode for better concurrent reads.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate submissions db: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS submissions (
			submission_id        TEXT PRIMARY KEY,
			full_name            TEXT NOT NULL,
			email                TEXT NOT NULL,
			phone                TEXT NOT NULL,
			station_name         TEXT NOT NULL,
			station_type         TEXT NOT NULL,
			geopolitical_zone    TEXT NOT NULL,
			state                TEXT NOT NULL,
			lga                  TEXT NOT NULL,
			address              TEXT,
			latitude             REAL NOT NULL,
			longitude            REAL NOT NULL,
			accuracy             REAL NOT NULL,
			location_source      TEXT NOT NULL,
			photo                BLOB,
			photo_timestamp      TEXT,
			photo_lat            REAL,
			photo_lon            REAL,
			status               TEXT NOT NULL DEFAULT 'pending',
			submission_timestamp TEXT NOT NULL
		)
	`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS admin_users (
			username      TEXT PRIMARY KEY,
			password_hash TEXT NOT NULL,
			created_at    TEXT NOT NULL
		)
	`)
	return err
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Create(ctx context.Context, sub *domain.Submission) error {
	var photoTS sql.NullString
	var photoLat, photoLon sql.NullFloat64
	if m := sub.PhotoMeta; m != nil {
		photoTS = sql.NullString{String: m.CapturedAt.UTC().Format(time.RFC3339Nano), Valid: true}
		if m.Latitude != nil {
			photoLat = sql.NullFloat64{Float64: *m.Latitude, Valid: true}
		}
		if m.Longitude != nil {
			photoLon = sql.NullFloat64{Float64: *m.Longitude, Valid: true}
		}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO submissions (
			submission_id, full_name, email, phone, station_name, station_type,
			geopolitical_zone, state, lga, address,
			latitude, longitude, accuracy, location_source,
			photo, photo_timestamp, photo_lat, photo_lon,
			status, submission_timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.Info.FullName, sub.Info.Email, sub.Info.Phone,
		sub.Info.StationName, sub.Info.StationType,
		sub.Info.Zone, sub.Info.State, sub.Info.LGA, sub.Info.Address,
		sub.Latitude, sub.Longitude, sub.AccuracyMeters, sub.LocationSource,
		sub.Photo, photoTS, photoLat, photoLon,
		string(sub.Status), sub.SubmittedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return domain.NewDomainError("SQLiteStore.Create", domain.ErrSubmissionDuplicate, sub.ID)
		}
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

const submissionColumns = `submission_id, full_name, email, phone, station_name, station_type,
	geopolitical_zone, state, lga, address,
	latitude, longitude, accuracy, location_source,
	photo, photo_timestamp, photo_lat, photo_lon,
	status, submission_timestamp`

func (s *SQLiteStore) Get(ctx context.Context, id string) (*domain.Submission, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+submissionColumns+" FROM submissions WHERE submission_id = ?", id)
	sub, err := scanSubmission(row)
	if err == sql.ErrNoRows {
		return nil, domain.NewDomainError("SQLiteStore.Get", domain.ErrSubmissionNotFound, id)
	}
	return sub, err
}

func (s *SQLiteStore) List(ctx context.Context) ([]*domain.Submission, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+submissionColumns+" FROM submissions ORDER BY submission_timestamp DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []*domain.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (s *SQLiteStore) UpdateStatus(ctx context.Context, id string, status domain.SubmissionStatus) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE submissions SET status = ? WHERE submission_id = ?", string(status), id)
	if err != nil {
		return fmt.Errorf("update submission status: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.NewDomainError("SQLiteStore.UpdateStatus", domain.ErrSubmissionNotFound, id)
	}
	return nil
}

func (s *SQLiteStore) Stats(ctx context.Context) (*domain.SubmissionStats, error) {
	stats := &domain.SubmissionStats{ByZone: make(map[string]int)}

	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN location_source = 'gps' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0)
		FROM submissions`)
	if err := row.Scan(&stats.Total, &stats.GPSCaptures, &stats.Pending); err != nil {
		return nil, fmt.Errorf("count submissions: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT geopolitical_zone, COUNT(*) FROM submissions GROUP BY geopolitical_zone")
	if err != nil {
		return nil, fmt.Errorf("count by zone: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var zone string
		var n int
		if err := rows.Scan(&zone, &n); err != nil {
			return nil, err
		}
		stats.ByZone[zone] = n
	}
	return stats, rows.Err()
}

func (s *SQLiteStore) GetAdmin(ctx context.Context, username string) (*domain.AdminUser, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT username, password_hash, created_at FROM admin_users WHERE username = ?", username)

	var u domain.AdminUser
	var createdStr string
	if err := row.Scan(&u.Username, &u.PasswordHash, &createdStr); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.NewDomainError("SQLiteStore.GetAdmin", domain.ErrNotFound, username)
		}
		return nil, err
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return &u, nil
}

func (s *SQLiteStore) CreateAdmin(ctx context.Context, u *domain.AdminUser) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO admin_users (username, password_hash, created_at) VALUES (?, ?, ?)",
		u.Username, u.PasswordHash, u.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return domain.NewDomainError("SQLiteStore.CreateAdmin", domain.ErrDuplicate, u.Username)
		}
		return fmt.Errorf("insert admin user: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row scanner) (*domain.Submission, error) {
	var sub domain.Submission
	var address sql.NullString
	var status, submittedStr string
	var photoTS sql.NullString
	var photoLat, photoLon sql.NullFloat64

	err := row.Scan(
		&sub.ID, &sub.Info.FullName, &sub.Info.Email, &sub.Info.Phone,
		&sub.Info.StationName, &sub.Info.StationType,
		&sub.Info.Zone, &sub.Info.State, &sub.Info.LGA, &address,
		&sub.Latitude, &sub.Longitude, &sub.AccuracyMeters, &sub.LocationSource,
		&sub.Photo, &photoTS, &photoLat, &photoLon,
		&status, &submittedStr,
	)
	if err != nil {
		return nil, err
	}

	sub.Info.Address = address.String
	sub.Status = domain.SubmissionStatus(status)
	sub.SubmittedAt, _ = time.Parse(time.RFC3339Nano, submittedStr)

	if photoTS.Valid {
		meta := &domain.PhotoMeta{}
		meta.CapturedAt, _ = time.Parse(time.RFC3339Nano, photoTS.String)
		if photoLat.Valid {
			v := photoLat.Float64
			meta.Latitude = &v
		}
		if photoLon.Valid {
			v := photoLon.Float64
			meta.Longitude = &v
		}
		sub.PhotoMeta = meta
	}
	return &sub, nil
}
