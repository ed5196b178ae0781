package export

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"routineos/internal/domain/routine"
)

// Format constants for export file format.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// FilePrefix is the download name prefix; the export date and extension follow it.
const FilePrefix = "routine-os-export-"

// TimestampLayout renders export timestamps in UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// CSVHeader is the fixed nine-column header of the CSV export.
var CSVHeader = []string{
	"Date", "Happiness", "Sleep Hours", "Focus Areas", "Focus Description",
	"Toltec Word", "Toltec Personal", "Toltec Assume", "Toltec Best",
}

// Document is the complete JSON export payload.
type Document struct {
	UserEmail  string    `json:"user_email"`
	ExportDate string    `json:"export_date"`
	Routines   []Row     `json:"routines"`
}

// Row is one routine entry as it appears in the JSON export.
type Row struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Date           string    `json:"date"`
	Happiness      *string   `json:"happiness"`
	SleepHours     *float64  `json:"sleep_hours"`
	FocusAreas     []string  `json:"focus_areas"`
	FocusDesc      string    `json:"focus_desc"`
	ToltecWord     bool      `json:"toltec_word"`
	ToltecPersonal bool      `json:"toltec_personal"`
	ToltecAssume   bool      `json:"toltec_assume"`
	ToltecBest     bool      `json:"toltec_best"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewDocument assembles the export payload. Entries keep their given order (date descending).
// PRE: entries belong to the account identified by email
// POST: Routines is non-nil so an empty export serialises as []
// POST: ExportDate is exportedAt in UTC, truncated to milliseconds
func NewDocument(email string, exportedAt time.Time, entries []routine.Entry) Document {
	rows := make([]Row, 0, len(entries))
	for i := range entries {
		rows = append(rows, toRow(&entries[i]))
	}
	return Document{
		UserEmail:  email,
		ExportDate: exportedAt.UTC().Truncate(time.Millisecond).Format(TimestampLayout),
		Routines:   rows,
	}
}

func toRow(e *routine.Entry) Row {
	r := Row{
		ID:             e.ID,
		UserID:         e.UserID,
		Date:           e.Date,
		SleepHours:     e.SleepHours,
		FocusAreas:     e.FocusAreaStrings(),
		FocusDesc:      e.FocusDesc,
		ToltecWord:     e.Agreements.Word,
		ToltecPersonal: e.Agreements.Personal,
		ToltecAssume:   e.Agreements.Assume,
		ToltecBest:     e.Agreements.Best,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
	if e.Happiness != routine.HappinessUnset {
		h := string(e.Happiness)
		r.Happiness = &h
	}
	return r
}

// ToJSON serializes the Document with two-space indentation.
// PRE: Document fields are populated
// POST: Returns JSON-encoded bytes of Document
func (d *Document) ToJSON() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// ToCSV renders entries as the nine-column CSV: header line, then one line per entry,
// joined with "\n" and no trailing newline. The description is always quoted with
// embedded quotes doubled; blank descriptions and unset (or zero) sleep hours are empty.
func ToCSV(entries []routine.Entry) []byte {
	lines := make([]string, 0, len(entries)+1)
	lines = append(lines, strings.Join(CSVHeader, ","))
	for i := range entries {
		lines = append(lines, csvLine(&entries[i]))
	}
	return []byte(strings.Join(lines, "\n"))
}

func csvLine(e *routine.Entry) string {
	sleep := ""
	if v := e.SleepHoursValue(); v != 0 {
		sleep = strconv.FormatFloat(v, 'f', -1, 64)
	}
	desc := ""
	if e.FocusDesc != "" {
		desc = `"` + strings.ReplaceAll(e.FocusDesc, `"`, `""`) + `"`
	}
	fields := []string{
		e.Date,
		string(e.Happiness),
		sleep,
		strings.Join(e.FocusAreaStrings(), ";"),
		desc,
		yesNo(e.Agreements.Word),
		yesNo(e.Agreements.Personal),
		yesNo(e.Agreements.Assume),
		yesNo(e.Agreements.Best),
	}
	return strings.Join(fields, ",")
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// Filename returns the download name for an export made on date (YYYY-MM-DD).
func Filename(date, format string) string {
	return fmt.Sprintf("%s%s.%s", FilePrefix, date, format)
}
