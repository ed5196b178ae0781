package account

import (
	"errors"
	"strings"
	"time"
)

// Max length constants for user-editable fields.
const (
	MaxEmailLength = 254
)

// Domain errors
var (
	ErrInvalidEmail = errors.New("email must contain '@'")
	ErrEmptyEmail   = errors.New("email cannot be empty")
	ErrEmailTooLong = errors.New("email cannot exceed 254 characters")
	ErrLinkExpired  = errors.New("this sign-in link has expired, request a new one")
	ErrLinkUsed     = errors.New("this sign-in link has already been used")
	ErrLinkInvalid  = errors.New("this sign-in link is invalid")
)

// Account is the owner of routine entries. Accounts are created on the first
// sign-in request for an email; there is no password.
type Account struct {
	ID        string
	Email     string
	CreatedAt time.Time
}

// MagicLink is a one-time sign-in grant. Its ID doubles as the token's jti claim.
type MagicLink struct {
	ID        string
	AccountID string
	ExpiresAt time.Time
	UsedAt    time.Time // zero until redeemed
	CreatedAt time.Time
}

// NormalizeEmail trims and lower-cases an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks an address is present, bounded and plausibly an email.
// PRE: none
// POST: Returns nil if valid, error otherwise
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrEmptyEmail
	}
	if len(email) > MaxEmailLength {
		return ErrEmailTooLong
	}
	if !strings.Contains(email, "@") {
		return ErrInvalidEmail
	}
	return nil
}

// Validate checks if the Account has valid data.
// PRE: Account struct is populated
// POST: Returns nil if valid, error otherwise
func (a *Account) Validate() error {
	return ValidateEmail(a.Email)
}

// DisplayName returns the local part of the email, used in greetings.
// INVARIANT: Account fields are not mutated
func (a *Account) DisplayName() string {
	name, _, _ := strings.Cut(a.Email, "@")
	return name
}

// IsExpired returns true if the link can no longer be redeemed because of its age.
// INVARIANT: MagicLink fields are not mutated
func (m *MagicLink) IsExpired(now time.Time) bool {
	return now.After(m.ExpiresAt)
}

// IsUsed returns true once the link has been redeemed.
func (m *MagicLink) IsUsed() bool {
	return !m.UsedAt.IsZero()
}

// Redeem checks the link is still valid at now and marks it used.
// PRE: link was loaded from the store
// POST: UsedAt is set to now, or an error explains why the link is rejected
func (m *MagicLink) Redeem(now time.Time) error {
	if m.IsUsed() {
		return ErrLinkUsed
	}
	if m.IsExpired(now) {
		return ErrLinkExpired
	}
	m.UsedAt = now
	return nil
}
