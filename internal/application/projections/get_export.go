package projections

import (
	"context"
	"errors"
	"fmt"
	"time"

	"routineos/internal/domain/export"
	"routineos/internal/domain/routine"
)

// GetExportQuery carries input for the export projection.
type GetExportQuery struct {
	UserID string
	Email  string
	Format string // export.FormatJSON or export.FormatCSV
}

// GetExportDeps holds dependencies for the export projection.
type GetExportDeps struct {
	RoutineStore RoutineListStore
	Location     *time.Location
	Now          func() time.Time
}

// ExportResult is a ready-to-download file.
type ExportResult struct {
	Filename    string
	ContentType string
	Body        []byte
	Count       int
}

// ErrUnknownExportFormat is returned for formats other than json and csv.
var ErrUnknownExportFormat = errors.New("unknown export format")

// QueryGetExport serialises every entry the user has, newest first.
// PRE: UserID is the signed-in account
// POST: Returns the file, or the store error so the caller can report "Export failed"
func QueryGetExport(ctx context.Context, query GetExportQuery, deps GetExportDeps) (ExportResult, error) {
	if query.UserID == "" {
		return ExportResult{}, errors.New("user ID is required")
	}
	if query.Format != export.FormatJSON && query.Format != export.FormatCSV {
		return ExportResult{}, fmt.Errorf("%w: %q", ErrUnknownExportFormat, query.Format)
	}

	entries, err := deps.RoutineStore.ListByUser(ctx, query.UserID, 0)
	if err != nil {
		return ExportResult{}, err
	}

	now := deps.Now()
	result := ExportResult{
		Filename: export.Filename(routine.Today(now, deps.Location), query.Format),
		Count:    len(entries),
	}
	switch query.Format {
	case export.FormatJSON:
		doc := export.NewDocument(query.Email, now, entries)
		body, err := doc.ToJSON()
		if err != nil {
			return ExportResult{}, err
		}
		result.Body = body
		result.ContentType = "application/json"
	case export.FormatCSV:
		result.Body = export.ToCSV(entries)
		result.ContentType = "text/csv; charset=utf-8"
	}
	return result, nil
}
