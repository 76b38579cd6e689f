package service

import (
	"context"
	"errors"
	"log/slog"

	"crosspost/internal/models"
	"crosspost/internal/repository"
	"crosspost/internal/transfer"
)

var (
	ErrPostNotFound    = errors.New("post not found")
	ErrPostPublished   = errors.New("cannot edit a published post")
	ErrRetryNotFailed  = errors.New("only failed posts can be retried")
	ErrAccountNotOwned = errors.New("social account doesn't exist")
)

type PostService interface {
	Create(ctx context.Context, userID int64, in *transfer.PostCreation) (*models.Post, error)
	List(ctx context.Context, userID int64, status string) ([]*models.Post, error)
	Get(ctx context.Context, userID, postID int64) (*models.Post, error)
	Update(ctx context.Context, userID, postID int64, in *transfer.PostUpdate) (*models.Post, error)
	Retry(ctx context.Context, userID, postID int64) (*models.Post, error)
	Remove(ctx context.Context, userID, postID int64) error
}

type postService struct {
	posts    repository.PostRepository
	accounts repository.SocialAccountRepository
}

func NewPostService(posts repository.PostRepository, accounts repository.SocialAccountRepository) PostService {
	return &postService{
		posts:    posts,
		accounts: accounts,
	}
}

// Create stores a new post. A schedule time makes it SCHEDULED; without one
// it stays a DRAFT the user can schedule later.
func (s *postService) Create(ctx context.Context, userID int64, in *transfer.PostCreation) (*models.Post, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	owned, err := s.accounts.CheckByUserID(ctx, in.SocialAccountID, userID)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, ErrAccountNotOwned
	}

	status := models.PostStatusDraft
	if in.ScheduledAt != nil {
		status = models.PostStatusScheduled
	}

	post := &models.Post{
		UserID:          userID,
		SocialAccountID: in.SocialAccountID,
		Content:         in.Content,
		MediaURLs:       in.MediaURLs,
		Status:          status,
		ScheduledAt:     in.ScheduledAt,
	}

	id, err := s.posts.Create(ctx, post)
	if err != nil {
		return nil, err
	}

	return s.posts.GetByID(ctx, id)
}

func (s *postService) List(ctx context.Context, userID int64, status string) ([]*models.Post, error) {
	return s.posts.ListByUserID(ctx, userID, status)
}

func (s *postService) Get(ctx context.Context, userID, postID int64) (*models.Post, error) {
	post, err := s.posts.GetByUserID(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	return post, nil
}

// Update applies a partial edit. PUBLISHED is terminal: edits are rejected.
// Setting a schedule time moves the post to SCHEDULED, clearing it moves the
// post back to DRAFT.
func (s *postService) Update(ctx context.Context, userID, postID int64, in *transfer.PostUpdate) (*models.Post, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	post, err := s.posts.GetByUserID(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	if post.Status == models.PostStatusPublished {
		return nil, ErrPostPublished
	}

	if in.Content != nil {
		post.Content = *in.Content
	}
	if in.MediaURLs != nil {
		post.MediaURLs = in.MediaURLs
	}
	if in.ClearSchedule {
		post.ScheduledAt = nil
		post.Status = models.PostStatusDraft
	} else if in.ScheduledAt != nil {
		post.ScheduledAt = in.ScheduledAt
		post.Status = models.PostStatusScheduled
	}

	if err := s.posts.Update(ctx, post); err != nil {
		return nil, err
	}

	return s.posts.GetByID(ctx, post.ID)
}

// Retry puts a FAILED post back on the schedule. The original scheduled time
// is kept. It is already in the past, so the next tick re-attempts
// immediately.
func (s *postService) Retry(ctx context.Context, userID, postID int64) (*models.Post, error) {
	post, err := s.posts.GetByUserID(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	if post.Status != models.PostStatusFailed {
		return nil, ErrRetryNotFailed
	}

	if err := s.posts.ResetForRetry(ctx, post.ID); err != nil {
		return nil, err
	}

	return s.posts.GetByID(ctx, post.ID)
}

func (s *postService) Remove(ctx context.Context, userID, postID int64) error {
	post, err := s.posts.GetByUserID(ctx, postID, userID)
	if err != nil {
		return err
	}
	if post == nil {
		return ErrPostNotFound
	}

	if err := s.posts.Remove(ctx, post.ID); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
