package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"crosspost/internal/models"
)

const defaultTwitterAPIURL = "https://api.twitter.com"

type TwitterFetcher struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewTwitterFetcher() *TwitterFetcher {
	return &TwitterFetcher{
		BaseURL:    defaultTwitterAPIURL,
		HTTPClient: &http.Client{},
	}
}

var _ Fetcher = (*TwitterFetcher)(nil)

// Fetch reads the tweet's public engagement counts. Impression count is
// absent on limited API tiers; that maps to nil, not a failure.
func (f *TwitterFetcher) Fetch(ctx context.Context, token, tweetID string) *models.PostMetrics {
	endpoint := fmt.Sprintf("%s/2/tweets/%s?tweet.fields=public_metrics", f.BaseURL, tweetID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		slog.Info(err.Error())
		return nil
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Info(err.Error())
		return nil
	}

	var result struct {
		Data struct {
			PublicMetrics *struct {
				LikeCount       *int64 `json:"like_count"`
				ReplyCount      *int64 `json:"reply_count"`
				RetweetCount    *int64 `json:"retweet_count"`
				ImpressionCount *int64 `json:"impression_count"`
			} `json:"public_metrics"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		slog.Info(err.Error())
		return nil
	}

	m := result.Data.PublicMetrics
	if m == nil {
		return nil
	}

	now := time.Now()
	return &models.PostMetrics{
		Likes:       m.LikeCount,
		Comments:    m.ReplyCount,
		Shares:      m.RetweetCount,
		Impressions: m.ImpressionCount,
		UpdatedAt:   &now,
	}
}
