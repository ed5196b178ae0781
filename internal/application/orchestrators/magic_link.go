package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"routineos/internal/adapters/email"
	accountStore "routineos/internal/adapters/storage/account"
	"routineos/internal/domain/account"
)

// AccountStoreForMagicLink defines the store interface needed by the magic-link orchestrators.
type AccountStoreForMagicLink interface {
	GetByID(ctx context.Context, id string) (account.Account, error)
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
	SaveMagicLink(ctx context.Context, link account.MagicLink) error
	GetMagicLink(ctx context.Context, id string) (account.MagicLink, error)
	MarkMagicLinkUsed(ctx context.Context, id string, at time.Time) error
}

// CallbackPath is where emailed links land.
const CallbackPath = "/auth/callback"

// magicLinkClaims are the signed contents of an emailed token.
// Subject is the account ID and ID (jti) is the magic_link row ID.
type magicLinkClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// --- Request Magic Link ---

// RequestMagicLinkInput carries input for the request orchestrator.
type RequestMagicLinkInput struct {
	Email string
}

// RequestMagicLinkResult reports what was issued.
type RequestMagicLinkResult struct {
	AccountID string
	LinkID    string
	Created   bool // true when this request signed the email up
}

// RequestMagicLinkDeps holds dependencies for RequestMagicLink.
type RequestMagicLinkDeps struct {
	AccountStore AccountStoreForMagicLink
	Sender       email.Sender
	BaseURL      string
	TokenKey     []byte
	TTL          time.Duration
	GenerateID   func() string
	Now          func() time.Time
}

// ExecuteRequestMagicLink finds or creates the account for an email and emails it a one-time sign-in link.
// PRE: deps.TokenKey is non-empty; deps.TTL > 0
// POST: A magic_link row exists for the account and an email pointing at CallbackPath was handed to the sender
// INVARIANT: Sign-up and sign-in are the same action
func ExecuteRequestMagicLink(ctx context.Context, input RequestMagicLinkInput, deps RequestMagicLinkDeps) (RequestMagicLinkResult, error) {
	if err := account.ValidateEmail(input.Email); err != nil {
		return RequestMagicLinkResult{}, err
	}
	addr := account.NormalizeEmail(input.Email)
	now := deps.Now()

	var result RequestMagicLinkResult
	acct, err := deps.AccountStore.GetByEmail(ctx, addr)
	switch {
	case errors.Is(err, accountStore.ErrNotFound):
		acct = account.Account{ID: deps.GenerateID(), Email: addr, CreatedAt: now}
		if err := deps.AccountStore.Save(ctx, acct); err != nil {
			return RequestMagicLinkResult{}, fmt.Errorf("create account: %w", err)
		}
		result.Created = true
		slog.Info("auth_event", "event", "account_created", "account_id", acct.ID)
	case err != nil:
		return RequestMagicLinkResult{}, fmt.Errorf("look up account: %w", err)
	}

	link := account.MagicLink{
		ID:        deps.GenerateID(),
		AccountID: acct.ID,
		ExpiresAt: now.Add(deps.TTL),
		CreatedAt: now,
	}
	if err := deps.AccountStore.SaveMagicLink(ctx, link); err != nil {
		return RequestMagicLinkResult{}, fmt.Errorf("save magic link: %w", err)
	}

	token, err := signMagicLink(deps.TokenKey, acct, link)
	if err != nil {
		return RequestMagicLinkResult{}, err
	}
	callback := deps.BaseURL + CallbackPath + "?token=" + url.QueryEscape(token)

	msg, err := email.MagicLinkMessage(acct.Email, callback, deps.TTL)
	if err != nil {
		return RequestMagicLinkResult{}, err
	}
	if _, err := deps.Sender.Send(ctx, msg); err != nil {
		slog.Error("auth_event", "event", "magic_link_send_failed", "account_id", acct.ID, "error", err)
		return RequestMagicLinkResult{}, errors.New("could not send the sign-in email, please try again")
	}

	slog.Info("auth_event", "event", "magic_link_sent", "account_id", acct.ID, "link_id", link.ID)
	result.AccountID = acct.ID
	result.LinkID = link.ID
	return result, nil
}

func signMagicLink(key []byte, acct account.Account, link account.MagicLink) (string, error) {
	claims := magicLinkClaims{
		Email: acct.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   acct.ID,
			ID:        link.ID,
			IssuedAt:  jwt.NewNumericDate(link.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(link.ExpiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("sign magic link: %w", err)
	}
	return signed, nil
}

// --- Verify Magic Link ---

// VerifyMagicLinkInput carries the token from the callback URL.
type VerifyMagicLinkInput struct {
	Token string
}

// VerifyMagicLinkResult carries the signed-in identity for session creation.
type VerifyMagicLinkResult struct {
	AccountID string
	Email     string
}

// VerifyMagicLinkDeps holds dependencies for VerifyMagicLink.
type VerifyMagicLinkDeps struct {
	AccountStore AccountStoreForMagicLink
	TokenKey     []byte
	Now          func() time.Time
}

// ExecuteVerifyMagicLink redeems a token.
// PRE: deps.TokenKey is the key the token was signed with
// POST: On success the link is marked used and the account identity is returned
// INVARIANT: A link redeems at most once; expired, unknown or tampered links return an account.ErrLink* error
func ExecuteVerifyMagicLink(ctx context.Context, input VerifyMagicLinkInput, deps VerifyMagicLinkDeps) (VerifyMagicLinkResult, error) {
	if input.Token == "" {
		return VerifyMagicLinkResult{}, account.ErrLinkInvalid
	}
	now := deps.Now()

	var claims magicLinkClaims
	_, err := jwt.ParseWithClaims(input.Token, &claims,
		func(*jwt.Token) (any, error) { return deps.TokenKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(deps.Now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			slog.Info("auth_event", "event", "magic_link_rejected", "reason", "expired")
			return VerifyMagicLinkResult{}, account.ErrLinkExpired
		}
		slog.Info("auth_event", "event", "magic_link_rejected", "reason", "invalid_token", "error", err)
		return VerifyMagicLinkResult{}, account.ErrLinkInvalid
	}

	link, err := deps.AccountStore.GetMagicLink(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, accountStore.ErrNotFound) {
			slog.Info("auth_event", "event", "magic_link_rejected", "reason", "unknown_link")
			return VerifyMagicLinkResult{}, account.ErrLinkInvalid
		}
		return VerifyMagicLinkResult{}, fmt.Errorf("load magic link: %w", err)
	}
	if link.AccountID != claims.Subject {
		slog.Warn("auth_event", "event", "magic_link_rejected", "reason", "subject_mismatch", "link_id", link.ID)
		return VerifyMagicLinkResult{}, account.ErrLinkInvalid
	}
	if err := link.Redeem(now); err != nil {
		slog.Info("auth_event", "event", "magic_link_rejected", "reason", err.Error(), "link_id", link.ID)
		return VerifyMagicLinkResult{}, err
	}
	if err := deps.AccountStore.MarkMagicLinkUsed(ctx, link.ID, now); err != nil {
		if errors.Is(err, account.ErrLinkUsed) {
			return VerifyMagicLinkResult{}, err
		}
		return VerifyMagicLinkResult{}, fmt.Errorf("redeem magic link: %w", err)
	}

	acct, err := deps.AccountStore.GetByID(ctx, link.AccountID)
	if err != nil {
		return VerifyMagicLinkResult{}, fmt.Errorf("load account: %w", err)
	}

	slog.Info("auth_event", "event", "login_success", "account_id", acct.ID)
	return VerifyMagicLinkResult{AccountID: acct.ID, Email: acct.Email}, nil
}
