package routine

// Agreement is one of the four fixed daily commitments. The value is its storage key.
type Agreement string

// The four agreements, keyed by their column names.
const (
	AgreementWord     Agreement = "toltec_word"
	AgreementPersonal Agreement = "toltec_personal"
	AgreementAssume   Agreement = "toltec_assume"
	AgreementBest     Agreement = "toltec_best"
)

// AgreementOrder is the fixed display order.
var AgreementOrder = []Agreement{AgreementWord, AgreementPersonal, AgreementAssume, AgreementBest}

// Title returns the agreement's heading.
func (a Agreement) Title() string {
	switch a {
	case AgreementWord:
		return "Be impeccable with your word"
	case AgreementPersonal:
		return "Don't take anything personally"
	case AgreementAssume:
		return "Don't make assumptions"
	case AgreementBest:
		return "Always do your best"
	}
	return ""
}

// Description returns the agreement's one-line explanation.
func (a Agreement) Description() string {
	switch a {
	case AgreementWord:
		return "Speak with integrity and say what you mean"
	case AgreementPersonal:
		return "Nothing others do is because of you"
	case AgreementAssume:
		return "Find the courage to ask questions and express clearly"
	case AgreementBest:
		return "Your best changes moment to moment"
	}
	return ""
}

// Agreements holds the four commitment flags for a day. Any subset may be true.
type Agreements struct {
	Word     bool
	Personal bool
	Assume   bool
	Best     bool
}

// AgreementsFromValues builds flags from a key→checked mapping. Missing keys are false.
func AgreementsFromValues(values map[string]bool) Agreements {
	var a Agreements
	for _, key := range AgreementOrder {
		a.Set(key, values[string(key)])
	}
	return a
}

// Get returns the flag for one agreement.
// INVARIANT: Agreements fields are not mutated
func (a Agreements) Get(key Agreement) bool {
	switch key {
	case AgreementWord:
		return a.Word
	case AgreementPersonal:
		return a.Personal
	case AgreementAssume:
		return a.Assume
	case AgreementBest:
		return a.Best
	}
	return false
}

// Set updates the flag for one agreement. Unknown keys are ignored.
// POST: the flag for key equals checked
func (a *Agreements) Set(key Agreement, checked bool) {
	switch key {
	case AgreementWord:
		a.Word = checked
	case AgreementPersonal:
		a.Personal = checked
	case AgreementAssume:
		a.Assume = checked
	case AgreementBest:
		a.Best = checked
	}
}

// Completed counts the true flags (0-4).
func (a Agreements) Completed() int {
	n := 0
	for _, key := range AgreementOrder {
		if a.Get(key) {
			n++
		}
	}
	return n
}
