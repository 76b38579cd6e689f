package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"crosspost/internal/models"
)

// PostWithAccount is a post joined with the social account it publishes
// through. The account decides which platform adapter handles the post.
type PostWithAccount struct {
	Post    models.Post
	Account models.SocialAccount
}

type PostRepository interface {
	Create(ctx context.Context, post *models.Post) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	GetByUserID(ctx context.Context, id, userID int64) (*models.Post, error)
	ListByUserID(ctx context.Context, userID int64, status string) ([]*models.Post, error)
	ListDue(ctx context.Context, now time.Time) ([]*PostWithAccount, error)
	ListMetricsStale(ctx context.Context, cutoff time.Time) ([]*PostWithAccount, error)
	Update(ctx context.Context, post *models.Post) error
	MarkPublished(ctx context.Context, id int64, publishedAt time.Time, platformPostID string) error
	MarkFailed(ctx context.Context, id int64, errorMessage string) error
	ResetForRetry(ctx context.Context, id int64) error
	UpdateMetrics(ctx context.Context, id int64, m *models.PostMetrics) error
	Remove(ctx context.Context, id int64) error
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `id, user_id, social_account_id, content, media_urls, status,
	scheduled_at, published_at, platform_post_id, error_message,
	metrics_likes, metrics_comments, metrics_shares, metrics_impressions,
	metrics_reach, metrics_saves, metrics_updated_at, created_at, updated_at`

func scanPost(row interface{ Scan(...interface{}) error }, post *models.Post) error {
	return row.Scan(&post.ID, &post.UserID, &post.SocialAccountID, &post.Content,
		&post.MediaURLs, &post.Status, &post.ScheduledAt, &post.PublishedAt,
		&post.PlatformPostID, &post.ErrorMessage,
		&post.Metrics.Likes, &post.Metrics.Comments, &post.Metrics.Shares,
		&post.Metrics.Impressions, &post.Metrics.Reach, &post.Metrics.Saves,
		&post.Metrics.UpdatedAt, &post.CreatedAt, &post.UpdatedAt)
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) (int64, error) {
	query := `
		INSERT INTO posts (user_id, social_account_id, content, media_urls, status, scheduled_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, post.UserID, post.SocialAccountID,
		post.Content, post.MediaURLs, post.Status, post.ScheduledAt).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *postRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var post models.Post
	if err := scanPost(row, &post); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &post, nil
}

func (r *postRepository) GetByUserID(ctx context.Context, id, userID int64) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1 AND user_id = $2`
	row := r.db.QueryRowContext(ctx, query, id, userID)

	var post models.Post
	if err := scanPost(row, &post); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &post, nil
}

func (r *postRepository) ListByUserID(ctx context.Context, userID int64, status string) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE user_id = $1`
	args := []interface{}{userID}

	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY scheduled_at ASC NULLS LAST`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		var post models.Post
		if err := scanPost(rows, &post); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, &post)
	}
	return posts, rows.Err()
}

const postAccountColumns = `p.id, p.user_id, p.social_account_id, p.content, p.media_urls, p.status,
	p.scheduled_at, p.published_at, p.platform_post_id, p.error_message,
	p.metrics_likes, p.metrics_comments, p.metrics_shares, p.metrics_impressions,
	p.metrics_reach, p.metrics_saves, p.metrics_updated_at, p.created_at, p.updated_at,
	a.id, a.user_id, a.platform, a.account_id, a.account_username,
	a.access_token, a.refresh_token, a.token_expires_at, a.created_at, a.updated_at`

func (r *postRepository) listWithAccount(ctx context.Context, query string, args ...interface{}) ([]*PostWithAccount, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var results []*PostWithAccount
	for rows.Next() {
		var pa PostWithAccount
		err := rows.Scan(&pa.Post.ID, &pa.Post.UserID, &pa.Post.SocialAccountID,
			&pa.Post.Content, &pa.Post.MediaURLs, &pa.Post.Status,
			&pa.Post.ScheduledAt, &pa.Post.PublishedAt, &pa.Post.PlatformPostID,
			&pa.Post.ErrorMessage,
			&pa.Post.Metrics.Likes, &pa.Post.Metrics.Comments, &pa.Post.Metrics.Shares,
			&pa.Post.Metrics.Impressions, &pa.Post.Metrics.Reach, &pa.Post.Metrics.Saves,
			&pa.Post.Metrics.UpdatedAt, &pa.Post.CreatedAt, &pa.Post.UpdatedAt,
			&pa.Account.ID, &pa.Account.UserID, &pa.Account.Platform,
			&pa.Account.AccountID, &pa.Account.AccountUsername,
			&pa.Account.AccessToken, &pa.Account.RefreshToken,
			&pa.Account.TokenExpiresAt, &pa.Account.CreatedAt, &pa.Account.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		results = append(results, &pa)
	}
	return results, rows.Err()
}

func (r *postRepository) ListDue(ctx context.Context, now time.Time) ([]*PostWithAccount, error) {
	query := `SELECT ` + postAccountColumns + `
		FROM posts p
		JOIN social_accounts a ON a.id = p.social_account_id
		WHERE p.status = $1 AND p.scheduled_at <= $2`
	return r.listWithAccount(ctx, query, models.PostStatusScheduled, now)
}

func (r *postRepository) ListMetricsStale(ctx context.Context, cutoff time.Time) ([]*PostWithAccount, error) {
	query := `SELECT ` + postAccountColumns + `
		FROM posts p
		JOIN social_accounts a ON a.id = p.social_account_id
		WHERE p.status = $1
		AND p.platform_post_id IS NOT NULL
		AND (p.metrics_updated_at IS NULL OR p.metrics_updated_at < $2)`
	return r.listWithAccount(ctx, query, models.PostStatusPublished, cutoff)
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	query := `
		UPDATE posts
		SET content = $1,
			media_urls = $2,
			status = $3,
			scheduled_at = $4,
			error_message = $5,
			updated_at = $6
		WHERE id = $7
	`
	_, err := r.db.ExecContext(ctx, query, post.Content, post.MediaURLs,
		post.Status, post.ScheduledAt, post.ErrorMessage, time.Now(), post.ID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) MarkPublished(ctx context.Context, id int64, publishedAt time.Time, platformPostID string) error {
	query := `
		UPDATE posts
		SET status = $1,
			published_at = $2,
			platform_post_id = $3,
			error_message = NULL,
			updated_at = $4
		WHERE id = $5
	`
	_, err := r.db.ExecContext(ctx, query, models.PostStatusPublished, publishedAt, platformPostID, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) MarkFailed(ctx context.Context, id int64, errorMessage string) error {
	query := `
		UPDATE posts
		SET status = $1,
			error_message = $2,
			updated_at = $3
		WHERE id = $4
	`
	_, err := r.db.ExecContext(ctx, query, models.PostStatusFailed, errorMessage, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// ResetForRetry keeps scheduled_at untouched: the original time is already in
// the past, so the next scheduler tick picks the post up immediately.
func (r *postRepository) ResetForRetry(ctx context.Context, id int64) error {
	query := `
		UPDATE posts
		SET status = $1,
			error_message = NULL,
			updated_at = $2
		WHERE id = $3
	`
	_, err := r.db.ExecContext(ctx, query, models.PostStatusScheduled, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) UpdateMetrics(ctx context.Context, id int64, m *models.PostMetrics) error {
	query := `
		UPDATE posts
		SET metrics_likes = $1,
			metrics_comments = $2,
			metrics_shares = $3,
			metrics_impressions = $4,
			metrics_reach = $5,
			metrics_saves = $6,
			metrics_updated_at = $7,
			updated_at = $8
		WHERE id = $9
	`
	_, err := r.db.ExecContext(ctx, query, m.Likes, m.Comments, m.Shares,
		m.Impressions, m.Reach, m.Saves, m.UpdatedAt, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM posts WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
