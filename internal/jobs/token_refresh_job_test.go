package job

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"crosspost/internal/models"
	"crosspost/internal/platform"
)

type stubAccountRepo struct {
	mu       sync.Mutex
	expiring []*models.SocialAccount
	updated  map[int64]string
}

func (r *stubAccountRepo) Upsert(ctx context.Context, sa *models.SocialAccount) (int64, error) {
	return 0, nil
}

func (r *stubAccountRepo) GetByID(ctx context.Context, id int64) (*models.SocialAccount, error) {
	return nil, nil
}

func (r *stubAccountRepo) ListByUserID(ctx context.Context, userID int64) ([]*models.SocialAccount, error) {
	return nil, nil
}

func (r *stubAccountRepo) ListExpiringBefore(ctx context.Context, deadline time.Time) ([]*models.SocialAccount, error) {
	return r.expiring, nil
}

func (r *stubAccountRepo) CheckByUserID(ctx context.Context, accountID, userID int64) (bool, error) {
	return false, nil
}

func (r *stubAccountRepo) UpdateTokens(ctx context.Context, id int64, accessToken, refreshToken string, expiresAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updated == nil {
		r.updated = map[int64]string{}
	}
	r.updated[id] = accessToken
	return nil
}

func (r *stubAccountRepo) Remove(ctx context.Context, id int64) error { return nil }

type stubRefresher struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *stubRefresher) RefreshToken(ctx context.Context, refreshToken string) (*platform.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &platform.Token{AccessToken: "fresh-" + refreshToken}, nil
}

func TestRefreshTokensOnlyTwitterWithRefreshToken(t *testing.T) {
	repo := &stubAccountRepo{expiring: []*models.SocialAccount{
		{ID: 1, Platform: models.PlatformTwitter, RefreshToken: "r1"},
		{ID: 2, Platform: models.PlatformTwitter}, // nothing to exchange
		{ID: 3, Platform: models.PlatformFacebook, RefreshToken: "r3"},
		{ID: 4, Platform: models.PlatformInstagram},
	}}
	refresher := &stubRefresher{}

	NewTokenRefreshJob(repo, refresher).RefreshTokens()

	assert.Equal(t, 1, refresher.calls)
	assert.Equal(t, map[int64]string{1: "fresh-r1"}, repo.updated)
}

func TestRefreshTokensFailureLeavesAccountAlone(t *testing.T) {
	repo := &stubAccountRepo{expiring: []*models.SocialAccount{
		{ID: 1, Platform: models.PlatformTwitter, RefreshToken: "r1"},
	}}
	refresher := &stubRefresher{err: errors.New("exchange rejected")}

	NewTokenRefreshJob(repo, refresher).RefreshTokens()

	assert.Equal(t, 1, refresher.calls)
	assert.Empty(t, repo.updated)
}
