package token

import (
	"context"
	"fmt"
	"time"

	"crosspost/internal/models"
	"crosspost/internal/platform"
	"crosspost/internal/repository"
)

// refreshBuffer is how much remaining validity counts as "still good".
// Tokens inside the buffer are refreshed before use.
const refreshBuffer = 5 * time.Minute

// RefreshError means a credential refresh failed or was unavailable. Its
// message ends up verbatim in the post's error_message column.
type RefreshError struct {
	Message string
	Err     error
}

func (e *RefreshError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("token refresh failed: %v", e.Err)
	}
	return "token refresh failed: " + e.Message
}

func (e *RefreshError) Unwrap() error { return e.Err }

// Refresher exchanges a refresh credential for a new token pair. The Twitter
// client is the only implementation; Meta page tokens never need one.
type Refresher interface {
	RefreshToken(ctx context.Context, refreshToken string) (*platform.Token, error)
}

type Guard struct {
	accounts  repository.SocialAccountRepository
	refresher Refresher
	now       func() time.Time
}

func NewGuard(accounts repository.SocialAccountRepository, refresher Refresher) *Guard {
	return &Guard{
		accounts:  accounts,
		refresher: refresher,
		now:       time.Now,
	}
}

// EnsureValidToken returns an access token currently usable for the account.
// The stored token is returned as-is when it has no expiry or more than the
// buffer remaining; otherwise a refresh exchange runs and the new pair is
// persisted before the new token is handed back.
func (g *Guard) EnsureValidToken(ctx context.Context, acc *models.SocialAccount) (string, error) {
	if acc.TokenExpiresAt == nil || acc.TokenExpiresAt.Sub(g.now()) > refreshBuffer {
		return acc.AccessToken, nil
	}

	// Meta Page Access Tokens never expire; whatever expiry got recorded is
	// not acted on.
	if acc.Platform == models.PlatformInstagram || acc.Platform == models.PlatformFacebook {
		return acc.AccessToken, nil
	}

	if acc.RefreshToken == "" {
		return "", &RefreshError{Message: "no refresh token"}
	}

	refreshed, err := g.refresher.RefreshToken(ctx, acc.RefreshToken)
	if err != nil {
		return "", &RefreshError{Message: "refresh exchange failed", Err: err}
	}

	if err := g.accounts.UpdateTokens(ctx, acc.ID, refreshed.AccessToken, refreshed.RefreshToken, refreshed.ExpiresAt); err != nil {
		return "", &RefreshError{Message: "persisting refreshed token", Err: err}
	}

	acc.AccessToken = refreshed.AccessToken
	acc.RefreshToken = refreshed.RefreshToken
	acc.TokenExpiresAt = refreshed.ExpiresAt

	return refreshed.AccessToken, nil
}
