package routine

// FocusSelection is the controlled multi-select over the focus area vocabulary.
// It holds no state beyond what the caller passes in; Toggle returns a new selection.
type FocusSelection struct {
	Selected []FocusArea
	Max      int
}

// NewFocusSelection wraps a selection. A non-positive max falls back to DefaultMaxFocusAreas.
func NewFocusSelection(selected []FocusArea, max int) FocusSelection {
	if max <= 0 {
		max = DefaultMaxFocusAreas
	}
	return FocusSelection{Selected: selected, Max: max}
}

// Toggle removes a selected area or appends an unselected one while under Max.
// PRE: area is from the vocabulary
// POST: removal always succeeds; adding at the limit is a no-op
func (s FocusSelection) Toggle(area FocusArea) FocusSelection {
	if s.IsSelected(area) {
		next := make([]FocusArea, 0, len(s.Selected))
		for _, a := range s.Selected {
			if a != area {
				next = append(next, a)
			}
		}
		return FocusSelection{Selected: next, Max: s.Max}
	}
	if s.AtLimit() {
		return s
	}
	next := make([]FocusArea, len(s.Selected), len(s.Selected)+1)
	copy(next, s.Selected)
	return FocusSelection{Selected: append(next, area), Max: s.Max}
}

// IsSelected reports whether area is in the selection.
func (s FocusSelection) IsSelected(area FocusArea) bool {
	for _, a := range s.Selected {
		if a == area {
			return true
		}
	}
	return false
}

// AtLimit reports whether no further area can be added.
func (s FocusSelection) AtLimit() bool {
	return len(s.Selected) >= s.Max
}

// Available returns the unselected areas in vocabulary order.
func (s FocusSelection) Available() []FocusArea {
	var out []FocusArea
	for _, a := range FocusAreas {
		if !s.IsSelected(a) {
			out = append(out, a)
		}
	}
	return out
}

// Draft is the editable morning form state before it is written as an Entry.
type Draft struct {
	FocusAreas []FocusArea
	FocusDesc  string
	Agreements Agreements
	Happiness  Happiness
	SleepHours *float64
}

// DraftFromEntry merges a stored entry into a default draft. A nil entry yields the defaults
// (empty selection, empty text, all flags false, happiness and sleep unset).
func DraftFromEntry(e *Entry) Draft {
	if e == nil {
		return Draft{FocusAreas: []FocusArea{}}
	}
	areas := e.FocusAreas
	if areas == nil {
		areas = []FocusArea{}
	}
	return Draft{
		FocusAreas: areas,
		FocusDesc:  e.FocusDesc,
		Agreements: e.Agreements,
		Happiness:  e.Happiness,
		SleepHours: e.SleepHours,
	}
}

// ToEntry produces the full upsert payload for (userID, date).
// POST: every draft field is copied; ID and timestamps are left to the store
func (d Draft) ToEntry(userID, date string) Entry {
	return Entry{
		UserID:     userID,
		Date:       date,
		Happiness:  d.Happiness,
		SleepHours: d.SleepHours,
		FocusAreas: d.FocusAreas,
		FocusDesc:  d.FocusDesc,
		Agreements: d.Agreements,
	}
}

// Selection returns the draft's focus areas as a FocusSelection with the given max.
func (d Draft) Selection(max int) FocusSelection {
	return NewFocusSelection(d.FocusAreas, max)
}
