package routine

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the canonical calendar-date format for entries (ISO YYYY-MM-DD).
const DateLayout = "2006-01-02"

// Limits used across the routine views.
const (
	DefaultMaxFocusAreas = 8
	CompletionWindowDays = 30
	HistoryLimit         = 30
)

// FocusArea is one of the fixed life-dimension tags a user selects daily.
type FocusArea string

// Focus area vocabulary.
const (
	FocusPhysical      FocusArea = "Physical"
	FocusSocial        FocusArea = "Social"
	FocusMental        FocusArea = "Mental"
	FocusSpiritual     FocusArea = "Spiritual"
	FocusCreative      FocusArea = "Creative"
	FocusProfessional  FocusArea = "Professional"
	FocusFinancial     FocusArea = "Financial"
	FocusEnvironmental FocusArea = "Environmental"
)

// FocusAreas lists the vocabulary in display order.
var FocusAreas = []FocusArea{
	FocusPhysical, FocusSocial, FocusMental, FocusSpiritual,
	FocusCreative, FocusProfessional, FocusFinancial, FocusEnvironmental,
}

// Happiness is the self-reported mood for the day. The zero value means unset.
type Happiness string

// Happiness levels.
const (
	HappinessUnset  Happiness = ""
	HappinessLow    Happiness = "Low"
	HappinessMedium Happiness = "Medium"
	HappinessHigh   Happiness = "High"
)

// HappinessLevels lists the settable levels in display order.
var HappinessLevels = []Happiness{HappinessLow, HappinessMedium, HappinessHigh}

// Domain errors
var (
	ErrEmptyUserID        = errors.New("user ID is required")
	ErrInvalidDate        = errors.New("date must be formatted YYYY-MM-DD")
	ErrUnknownFocusArea   = errors.New("unknown focus area")
	ErrDuplicateFocusArea = errors.New("focus area selected more than once")
	ErrTooManyFocusAreas  = errors.New("too many focus areas selected")
	ErrInvalidHappiness   = errors.New("happiness must be one of: Low, Medium, High")
	ErrNegativeSleep      = errors.New("sleep hours cannot be negative")
)

// Entry is one day's morning routine for a user. At most one exists per (UserID, Date).
type Entry struct {
	ID         string
	UserID     string
	Date       string // YYYY-MM-DD
	Happiness  Happiness
	SleepHours *float64 // nil when unset
	FocusAreas []FocusArea
	FocusDesc  string
	Agreements Agreements
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ParseFocusArea maps a string onto the closed vocabulary.
// PRE: none
// POST: Returns the matching FocusArea or ErrUnknownFocusArea
func ParseFocusArea(s string) (FocusArea, error) {
	for _, a := range FocusAreas {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFocusArea, s)
}

// ParseHappiness maps a string onto a happiness level; empty means unset.
// PRE: none
// POST: Returns the matching level or ErrInvalidHappiness
func ParseHappiness(s string) (Happiness, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return HappinessUnset, nil
	}
	for _, h := range HappinessLevels {
		if string(h) == s {
			return h, nil
		}
	}
	return HappinessUnset, ErrInvalidHappiness
}

// Validate checks the entry against the closed vocabularies and per-field bounds.
// PRE: Entry struct is populated
// POST: Returns nil if valid, error otherwise
func (e *Entry) Validate() error {
	if strings.TrimSpace(e.UserID) == "" {
		return ErrEmptyUserID
	}
	if _, err := time.Parse(DateLayout, e.Date); err != nil {
		return ErrInvalidDate
	}
	if e.Happiness != HappinessUnset {
		if _, err := ParseHappiness(string(e.Happiness)); err != nil {
			return err
		}
	}
	if e.SleepHours != nil && *e.SleepHours < 0 {
		return ErrNegativeSleep
	}
	return ValidateFocusAreas(e.FocusAreas, DefaultMaxFocusAreas)
}

// ValidateFocusAreas checks vocabulary membership, uniqueness and the max bound.
// PRE: max > 0
// POST: Returns nil if areas is a valid selection
func ValidateFocusAreas(areas []FocusArea, max int) error {
	if len(areas) > max {
		return ErrTooManyFocusAreas
	}
	seen := make(map[FocusArea]bool, len(areas))
	for _, a := range areas {
		if _, err := ParseFocusArea(string(a)); err != nil {
			return err
		}
		if seen[a] {
			return ErrDuplicateFocusArea
		}
		seen[a] = true
	}
	return nil
}

// HasFocus reports whether the entry's focus areas contain area.
// INVARIANT: Entry fields are not mutated
func (e *Entry) HasFocus(area FocusArea) bool {
	for _, a := range e.FocusAreas {
		if a == area {
			return true
		}
	}
	return false
}

// FocusAreaStrings returns the focus areas as plain strings (for storage and export).
func (e *Entry) FocusAreaStrings() []string {
	out := make([]string, len(e.FocusAreas))
	for i, a := range e.FocusAreas {
		out[i] = string(a)
	}
	return out
}

// SleepHoursValue returns the sleep hours, or 0 when unset.
func (e *Entry) SleepHoursValue() float64 {
	if e.SleepHours == nil {
		return 0
	}
	return *e.SleepHours
}

// Today returns the calendar date of now in loc, formatted YYYY-MM-DD.
// A nil loc means the server's local zone.
func Today(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return now.In(loc).Format(DateLayout)
}
