package job

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"crosspost/internal/models"
	"crosspost/internal/repository"
	"crosspost/internal/token"
)

// TokenRefreshJob proactively refreshes credentials that are about to run
// out, so most scheduler ticks publish without paying for a refresh
// exchange. The Token Guard still refreshes lazily when a post comes due
// between job runs.
type TokenRefreshJob struct {
	accounts  repository.SocialAccountRepository
	refresher token.Refresher
}

func NewTokenRefreshJob(accounts repository.SocialAccountRepository, refresher token.Refresher) *TokenRefreshJob {
	return &TokenRefreshJob{
		accounts:  accounts,
		refresher: refresher,
	}
}

func (j *TokenRefreshJob) RefreshTokens() {
	ctx := context.Background()

	deadline := time.Now().Add(30 * time.Minute)
	accounts, err := j.accounts.ListExpiringBefore(ctx, deadline)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	var wg sync.WaitGroup

	concurrencyLimit := 10
	semaphore := make(chan struct{}, concurrencyLimit)

	for _, acc := range accounts {
		// Meta page tokens don't expire and have nothing to exchange.
		if acc.Platform != models.PlatformTwitter || acc.RefreshToken == "" {
			continue
		}

		wg.Add(1)
		semaphore <- struct{}{}

		go func(acc *models.SocialAccount) {
			defer wg.Done()
			defer func() { <-semaphore }()

			refreshed, err := j.refresher.RefreshToken(ctx, acc.RefreshToken)
			if err != nil {
				slog.Info("unable to refresh token", "account_id", acc.ID, "error", err)
				return
			}

			err = j.accounts.UpdateTokens(ctx, acc.ID, refreshed.AccessToken, refreshed.RefreshToken, refreshed.ExpiresAt)
			if err != nil {
				slog.Info("unable to persist refreshed token", "account_id", acc.ID, "error", err)
			}
		}(acc)
	}

	wg.Wait()
}
