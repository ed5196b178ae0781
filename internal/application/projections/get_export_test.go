package projections

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"routineos/internal/domain/export"
)

func exportDeps(store *mockRoutineStore) GetExportDeps {
	return GetExportDeps{RoutineStore: store, Location: time.UTC, Now: fixedNow}
}

// TestQueryGetExport_CSV exports every entry newest first.
func TestQueryGetExport_CSV(t *testing.T) {
	store := &mockRoutineStore{entries: daysBefore(fixedTime, 40)}
	got, err := QueryGetExport(context.Background(), GetExportQuery{UserID: "u1", Format: export.FormatCSV}, exportDeps(store))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Filename != "routine-os-export-2026-10-18.csv" || !strings.HasPrefix(got.ContentType, "text/csv") {
		t.Errorf("file = %s (%s)", got.Filename, got.ContentType)
	}
	lines := strings.Split(string(got.Body), "\n")
	if len(lines) != 41 || !strings.HasPrefix(lines[1], "2026-10-18,") {
		t.Errorf("got %d lines, first row %q", len(lines), lines[1])
	}
	if store.limits[0] != 0 {
		t.Errorf("export must be unfiltered and unlimited, limit=%d", store.limits[0])
	}
}

// TestQueryGetExport_JSON includes the email.
func TestQueryGetExport_JSON(t *testing.T) {
	got, err := QueryGetExport(context.Background(), GetExportQuery{UserID: "u1", Email: "a@example.com", Format: export.FormatJSON},
		exportDeps(&mockRoutineStore{entries: daysBefore(fixedTime, 2)}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Count != 2 || !strings.Contains(string(got.Body), `"user_email": "a@example.com"`) {
		t.Errorf("body = %s", got.Body)
	}
}

// TestQueryGetExport_Errors surfaces store failures and bad formats.
func TestQueryGetExport_Errors(t *testing.T) {
	if _, err := QueryGetExport(context.Background(), GetExportQuery{UserID: "u1", Format: export.FormatCSV}, exportDeps(&mockRoutineStore{listErr: errBoom})); !errors.Is(err, errBoom) {
		t.Errorf("err = %v, want boom", err)
	}
	if _, err := QueryGetExport(context.Background(), GetExportQuery{UserID: "u1", Format: "xml"}, exportDeps(&mockRoutineStore{})); !errors.Is(err, ErrUnknownExportFormat) {
		t.Errorf("err = %v, want ErrUnknownExportFormat", err)
	}
}
