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

type InstagramFetcher struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewInstagramFetcher() *InstagramFetcher {
	return &InstagramFetcher{
		BaseURL:    defaultGraphBaseURL,
		HTTPClient: &http.Client{},
	}
}

var _ Fetcher = (*InstagramFetcher)(nil)

// Fetch reads the media insights array and maps entries by metric name.
// Shares stay nil because Instagram has no share metric. Reach and saves exist
// only on this platform.
func (f *InstagramFetcher) Fetch(ctx context.Context, token, mediaID string) *models.PostMetrics {
	endpoint := fmt.Sprintf("%s/%s/insights?metric=impressions,reach,likes,comments,saves&access_token=%s",
		f.BaseURL, mediaID, url.QueryEscape(token))

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
		Data []struct {
			Name   string `json:"name"`
			Values []struct {
				Value int64 `json:"value"`
			} `json:"values"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		slog.Info(err.Error())
		return nil
	}

	byName := make(map[string]*int64, len(result.Data))
	for _, entry := range result.Data {
		if len(entry.Values) == 0 {
			continue
		}
		value := entry.Values[0].Value
		byName[entry.Name] = &value
	}

	now := time.Now()
	return &models.PostMetrics{
		Likes:       byName["likes"],
		Comments:    byName["comments"],
		Impressions: byName["impressions"],
		Reach:       byName["reach"],
		Saves:       byName["saves"],
		UpdatedAt:   &now,
	}
}
