package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"crosspost/internal/analytics"
	"crosspost/internal/models"
	"crosspost/internal/platform"
	"crosspost/internal/repository"
)

const (
	concurrencyLimit = 10

	// metricsStaleness is the minimum age before a published post's metrics
	// are fetched again.
	metricsStaleness = 50 * time.Minute
)

// ErrRunInProgress is returned when a run is requested while the previous one
// for the same routine is still going. Overlapping runs would process the
// same due posts twice, so they are skipped instead.
var ErrRunInProgress = errors.New("scheduler run already in progress")

// TokenGuard hands out a currently valid access token for an account,
// refreshing and persisting when needed.
type TokenGuard interface {
	EnsureValidToken(ctx context.Context, acc *models.SocialAccount) (string, error)
}

type Outcome struct {
	PostID         int64  `json:"post_id"`
	Success        bool   `json:"success"`
	PlatformPostID string `json:"platform_post_id,omitempty"`
	Error          string `json:"error,omitempty"`
}

type RunResult struct {
	Processed int       `json:"processed"`
	Results   []Outcome `json:"results"`
}

type Scheduler struct {
	posts      repository.PostRepository
	guard      TokenGuard
	publishers map[string]platform.Publisher
	fetchers   map[string]analytics.Fetcher
	now        func() time.Time

	publishMu sync.Mutex
	metricsMu sync.Mutex
}

func New(
	posts repository.PostRepository,
	guard TokenGuard,
	publishers map[string]platform.Publisher,
	fetchers map[string]analytics.Fetcher) *Scheduler {
	return &Scheduler{
		posts:      posts,
		guard:      guard,
		publishers: publishers,
		fetchers:   fetchers,
		now:        time.Now,
	}
}

// RunScheduler publishes every due post: status SCHEDULED with a scheduled
// time at or before now. Posts are processed concurrently and independently;
// each one ends up PUBLISHED or FAILED and contributes one outcome. Only a
// failure of the due-post query itself propagates.
func (s *Scheduler) RunScheduler(ctx context.Context) (*RunResult, error) {
	if !s.publishMu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.publishMu.Unlock()

	now := s.now()
	duePosts, err := s.posts.ListDue(ctx, now)
	if err != nil {
		return nil, err
	}

	results := make([]Outcome, len(duePosts))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, concurrencyLimit)

	for i, due := range duePosts {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(i int, due *repository.PostWithAccount) {
			defer wg.Done()
			defer func() { <-semaphore }()

			results[i] = s.publishOne(ctx, now, due)
		}(i, due)
	}
	wg.Wait()

	return &RunResult{Processed: len(duePosts), Results: results}, nil
}

func (s *Scheduler) publishOne(ctx context.Context, now time.Time, due *repository.PostWithAccount) Outcome {
	post := due.Post
	account := due.Account

	accessToken, err := s.guard.EnsureValidToken(ctx, &account)
	if err != nil {
		return s.failPost(ctx, post.ID, err)
	}

	publisher, ok := s.publishers[account.Platform]
	if !ok {
		return s.failPost(ctx, post.ID, fmt.Errorf("no publisher for platform %s", account.Platform))
	}

	platformPostID, err := publisher.Publish(ctx, accessToken, account.AccountID, post.Content, post.MediaURLs)
	if err != nil {
		return s.failPost(ctx, post.ID, err)
	}

	if err := s.posts.MarkPublished(ctx, post.ID, now, platformPostID); err != nil {
		slog.Info("failed to mark post published", "post_id", post.ID, "error", err)
		return Outcome{PostID: post.ID, Success: false, Error: err.Error()}
	}

	return Outcome{PostID: post.ID, Success: true, PlatformPostID: platformPostID}
}

func (s *Scheduler) failPost(ctx context.Context, postID int64, cause error) Outcome {
	if err := s.posts.MarkFailed(ctx, postID, cause.Error()); err != nil {
		slog.Info("failed to mark post failed", "post_id", postID, "error", err)
	}
	return Outcome{PostID: postID, Success: false, Error: cause.Error()}
}

// RunMetricsRefresh re-fetches engagement counts for published posts whose
// metrics were never fetched or are older than the staleness window. A
// fetcher returning nil means the platform had nothing to report; the post
// is skipped without a write and without being marked FAILED.
func (s *Scheduler) RunMetricsRefresh(ctx context.Context) (int, error) {
	if !s.metricsMu.TryLock() {
		return 0, ErrRunInProgress
	}
	defer s.metricsMu.Unlock()

	cutoff := s.now().Add(-metricsStaleness)
	stalePosts, err := s.posts.ListMetricsStale(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, concurrencyLimit)

	for _, stale := range stalePosts {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(stale *repository.PostWithAccount) {
			defer wg.Done()
			defer func() { <-semaphore }()

			s.refreshOne(ctx, stale)
		}(stale)
	}
	wg.Wait()

	return len(stalePosts), nil
}

func (s *Scheduler) refreshOne(ctx context.Context, stale *repository.PostWithAccount) {
	post := stale.Post
	account := stale.Account

	if post.PlatformPostID == nil {
		return
	}

	accessToken, err := s.guard.EnsureValidToken(ctx, &account)
	if err != nil {
		slog.Info("skipping metrics refresh", "post_id", post.ID, "error", err)
		return
	}

	fetcher, ok := s.fetchers[account.Platform]
	if !ok {
		slog.Info("no metrics fetcher for platform", "platform", account.Platform)
		return
	}

	metrics := fetcher.Fetch(ctx, accessToken, *post.PlatformPostID)
	if metrics == nil {
		return
	}

	if err := s.posts.UpdateMetrics(ctx, post.ID, metrics); err != nil {
		slog.Info("failed to persist metrics", "post_id", post.ID, "error", err)
	}
}
