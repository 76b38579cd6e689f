package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"crosspost/internal/models"
)

const defaultGraphBaseURL = "https://graph.facebook.com/v19.0"

type FacebookFetcher struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewFacebookFetcher() *FacebookFetcher {
	return &FacebookFetcher{
		BaseURL:    defaultGraphBaseURL,
		HTTPClient: &http.Client{},
	}
}

var _ Fetcher = (*FacebookFetcher)(nil)

// Fetch reads like/comment summaries, the share count and the
// post_impressions insight. Each sub-object maps to nil independently when
// the Graph response omits it.
func (f *FacebookFetcher) Fetch(ctx context.Context, token, postID string) *models.PostMetrics {
	fields := "likes.summary(true),comments.summary(true),shares,insights.metric(post_impressions)"
	endpoint := fmt.Sprintf("%s/%s?fields=%s&access_token=%s",
		f.BaseURL, postID, url.QueryEscape(fields), url.QueryEscape(token))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		slog.Info(err.Error())
		return nil
	}

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
		Likes *struct {
			Summary struct {
				TotalCount int64 `json:"total_count"`
			} `json:"summary"`
		} `json:"likes"`
		Comments *struct {
			Summary struct {
				TotalCount int64 `json:"total_count"`
			} `json:"summary"`
		} `json:"comments"`
		Shares *struct {
			Count int64 `json:"count"`
		} `json:"shares"`
		Insights *struct {
			Data []struct {
				Name   string `json:"name"`
				Values []struct {
					Value int64 `json:"value"`
				} `json:"values"`
			} `json:"data"`
		} `json:"insights"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		slog.Info(err.Error())
		return nil
	}

	now := time.Now()
	metrics := &models.PostMetrics{UpdatedAt: &now}

	if result.Likes != nil {
		likes := result.Likes.Summary.TotalCount
		metrics.Likes = &likes
	}
	if result.Comments != nil {
		comments := result.Comments.Summary.TotalCount
		metrics.Comments = &comments
	}
	if result.Shares != nil {
		shares := result.Shares.Count
		metrics.Shares = &shares
	}
	if result.Insights != nil {
		for _, entry := range result.Insights.Data {
			if entry.Name == "post_impressions" && len(entry.Values) > 0 {
				impressions := entry.Values[0].Value
				metrics.Impressions = &impressions
				break
			}
		}
	}

	return metrics
}
