package token

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crosspost/internal/models"
	"crosspost/internal/platform"
)

type fakeAccountStore struct {
	updateCalls int
	updatedAccess,
	updatedRefresh string
	updatedExpiry *time.Time
	updateErr     error
}

func (f *fakeAccountStore) Upsert(ctx context.Context, sa *models.SocialAccount) (int64, error) {
	return 0, nil
}

func (f *fakeAccountStore) GetByID(ctx context.Context, id int64) (*models.SocialAccount, error) {
	return nil, nil
}

func (f *fakeAccountStore) ListByUserID(ctx context.Context, userID int64) ([]*models.SocialAccount, error) {
	return nil, nil
}

func (f *fakeAccountStore) ListExpiringBefore(ctx context.Context, deadline time.Time) ([]*models.SocialAccount, error) {
	return nil, nil
}

func (f *fakeAccountStore) CheckByUserID(ctx context.Context, accountID, userID int64) (bool, error) {
	return false, nil
}

func (f *fakeAccountStore) UpdateTokens(ctx context.Context, id int64, accessToken, refreshToken string, expiresAt *time.Time) error {
	f.updateCalls++
	f.updatedAccess = accessToken
	f.updatedRefresh = refreshToken
	f.updatedExpiry = expiresAt
	return f.updateErr
}

func (f *fakeAccountStore) Remove(ctx context.Context, id int64) error {
	return nil
}

type fakeRefresher struct {
	calls int
	token *platform.Token
	err   error
}

func (f *fakeRefresher) RefreshToken(ctx context.Context, refreshToken string) (*platform.Token, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.token, nil
}

func newTestGuard(store *fakeAccountStore, refresher *fakeRefresher, now time.Time) *Guard {
	g := NewGuard(store, refresher)
	g.now = func() time.Time { return now }
	return g
}

func timePtr(t time.Time) *time.Time { return &t }

func TestEnsureValidTokenNoExpiry(t *testing.T) {
	store := &fakeAccountStore{}
	refresher := &fakeRefresher{}
	g := newTestGuard(store, refresher, time.Now())

	acc := &models.SocialAccount{
		Platform:    models.PlatformTwitter,
		AccessToken: "stored-token",
	}

	got, err := g.EnsureValidToken(context.Background(), acc)
	require.NoError(t, err)
	assert.Equal(t, "stored-token", got)
	assert.Zero(t, refresher.calls)
	assert.Zero(t, store.updateCalls)
}

func TestEnsureValidTokenOutsideBuffer(t *testing.T) {
	now := time.Now()
	store := &fakeAccountStore{}
	refresher := &fakeRefresher{}
	g := newTestGuard(store, refresher, now)

	acc := &models.SocialAccount{
		Platform:       models.PlatformTwitter,
		AccessToken:    "stored-token",
		RefreshToken:   "refresh",
		TokenExpiresAt: timePtr(now.Add(6 * time.Minute)),
	}

	got, err := g.EnsureValidToken(context.Background(), acc)
	require.NoError(t, err)
	assert.Equal(t, "stored-token", got)
	assert.Zero(t, refresher.calls)
}

func TestEnsureValidTokenInsideBufferRefreshes(t *testing.T) {
	now := time.Now()
	newExpiry := timePtr(now.Add(2 * time.Hour))
	store := &fakeAccountStore{}
	refresher := &fakeRefresher{
		token: &platform.Token{
			AccessToken:  "new-access",
			RefreshToken: "new-refresh",
			ExpiresAt:    newExpiry,
		},
	}
	g := newTestGuard(store, refresher, now)

	acc := &models.SocialAccount{
		ID:             7,
		Platform:       models.PlatformTwitter,
		AccessToken:    "stale-token",
		RefreshToken:   "old-refresh",
		TokenExpiresAt: timePtr(now.Add(4 * time.Minute)),
	}

	got, err := g.EnsureValidToken(context.Background(), acc)
	require.NoError(t, err)
	assert.Equal(t, "new-access", got)
	assert.Equal(t, 1, refresher.calls)

	// the new pair is persisted exactly once and mirrored on the account
	assert.Equal(t, 1, store.updateCalls)
	assert.Equal(t, "new-access", store.updatedAccess)
	assert.Equal(t, "new-refresh", store.updatedRefresh)
	assert.Equal(t, newExpiry, store.updatedExpiry)
	assert.Equal(t, "new-access", acc.AccessToken)
	assert.Equal(t, "new-refresh", acc.RefreshToken)
	assert.Equal(t, newExpiry, acc.TokenExpiresAt)
}

func TestEnsureValidTokenExpiredRefreshes(t *testing.T) {
	now := time.Now()
	store := &fakeAccountStore{}
	refresher := &fakeRefresher{
		token: &platform.Token{AccessToken: "new-access", RefreshToken: "new-refresh"},
	}
	g := newTestGuard(store, refresher, now)

	acc := &models.SocialAccount{
		Platform:       models.PlatformTwitter,
		AccessToken:    "dead-token",
		RefreshToken:   "refresh",
		TokenExpiresAt: timePtr(now.Add(-time.Hour)),
	}

	got, err := g.EnsureValidToken(context.Background(), acc)
	require.NoError(t, err)
	assert.Equal(t, "new-access", got)
	assert.Equal(t, 1, refresher.calls)
}

func TestEnsureValidTokenMetaNeverRefreshes(t *testing.T) {
	now := time.Now()
	for _, p := range []string{models.PlatformInstagram, models.PlatformFacebook} {
		store := &fakeAccountStore{}
		refresher := &fakeRefresher{err: errors.New("should not be called")}
		g := newTestGuard(store, refresher, now)

		acc := &models.SocialAccount{
			Platform:       p,
			AccessToken:    "page-token",
			TokenExpiresAt: timePtr(now.Add(-time.Hour)),
		}

		got, err := g.EnsureValidToken(context.Background(), acc)
		require.NoError(t, err)
		assert.Equal(t, "page-token", got)
		assert.Zero(t, refresher.calls)
		assert.Zero(t, store.updateCalls)
	}
}

func TestEnsureValidTokenNoRefreshToken(t *testing.T) {
	now := time.Now()
	store := &fakeAccountStore{}
	g := newTestGuard(store, &fakeRefresher{}, now)

	acc := &models.SocialAccount{
		Platform:       models.PlatformTwitter,
		AccessToken:    "dead-token",
		TokenExpiresAt: timePtr(now.Add(-time.Minute)),
	}

	_, err := g.EnsureValidToken(context.Background(), acc)
	var refreshErr *RefreshError
	require.ErrorAs(t, err, &refreshErr)
	assert.Equal(t, "no refresh token", refreshErr.Message)
}

func TestEnsureValidTokenRefreshFailure(t *testing.T) {
	now := time.Now()
	store := &fakeAccountStore{}
	cause := errors.New("exchange rejected")
	g := newTestGuard(store, &fakeRefresher{err: cause}, now)

	acc := &models.SocialAccount{
		Platform:       models.PlatformTwitter,
		AccessToken:    "dead-token",
		RefreshToken:   "refresh",
		TokenExpiresAt: timePtr(now.Add(-time.Minute)),
	}

	_, err := g.EnsureValidToken(context.Background(), acc)
	var refreshErr *RefreshError
	require.ErrorAs(t, err, &refreshErr)
	assert.ErrorIs(t, err, cause)
	assert.Zero(t, store.updateCalls)
}

func TestEnsureValidTokenPersistFailure(t *testing.T) {
	now := time.Now()
	store := &fakeAccountStore{updateErr: errors.New("db down")}
	refresher := &fakeRefresher{token: &platform.Token{AccessToken: "new-access"}}
	g := newTestGuard(store, refresher, now)

	acc := &models.SocialAccount{
		Platform:       models.PlatformTwitter,
		AccessToken:    "dead-token",
		RefreshToken:   "refresh",
		TokenExpiresAt: timePtr(now.Add(-time.Minute)),
	}

	_, err := g.EnsureValidToken(context.Background(), acc)
	var refreshErr *RefreshError
	require.ErrorAs(t, err, &refreshErr)
	assert.Equal(t, "dead-token", acc.AccessToken)
}
