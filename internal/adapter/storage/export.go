package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/DCloudHub/station-onboarding/internal/domain"
)

var csvHeader = []string{
	"submission_id", "full_name", "email", "phone",
	"station_name", "station_type", "geopolitical_zone", "state", "lga", "address",
	"latitude", "longitude", "accuracy", "location_source",
	"status", "submission_timestamp",
}

// ExportCSV writes every stored submission to w as CSV. Photo blobs are
// excluded; the export is meant for spreadsheets.
func ExportCSV(ctx context.Context, store domain.SubmissionStore, w io.Writer) error {
	subs, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("list submissions: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, sub := range subs {
		record := []string{
			sub.ID, sub.Info.FullName, sub.Info.Email, sub.Info.Phone,
			sub.Info.StationName, sub.Info.StationType,
			sub.Info.Zone, sub.Info.State, sub.Info.LGA, sub.Info.Address,
			strconv.FormatFloat(sub.Latitude, 'f', -1, 64),
			strconv.FormatFloat(sub.Longitude, 'f', -1, 64),
			strconv.FormatFloat(sub.AccuracyMeters, 'f', -1, 64),
			sub.LocationSource,
			string(sub.Status),
			sub.SubmittedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
