package platform

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	config "crosspost/configs"
	"crosspost/internal/models"
	"crosspost/pkg/web"
)

const (
	defaultTwitterAPIURL    = "https://api.twitter.com"
	defaultTwitterUploadURL = "https://upload.twitter.com"

	twitterMaxMedia = 4
)

// Token is a refreshed credential pair returned by a platform token endpoint.
type Token struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    *time.Time
}

type TwitterClient struct {
	APIBaseURL    string
	UploadBaseURL string
	HTTPClient    *http.Client
	clientID      string
	clientSecret  string
}

func NewTwitterClient(cfg config.Config) *TwitterClient {
	return &TwitterClient{
		APIBaseURL:    defaultTwitterAPIURL,
		UploadBaseURL: defaultTwitterUploadURL,
		HTTPClient:    &http.Client{},
		clientID:      cfg.TwitterClientID,
		clientSecret:  cfg.TwitterClientSecret,
	}
}

var _ Publisher = (*TwitterClient)(nil)

type tweetRequest struct {
	Text  string      `json:"text"`
	Media *tweetMedia `json:"media,omitempty"`
}

type tweetMedia struct {
	MediaIDs []string `json:"media_ids"`
}

// Publish uploads every media URL to the v1.1 media endpoint, then creates
// the tweet through the v2 endpoint. Any media fetch or upload failure
// aborts the whole publish.
func (c *TwitterClient) Publish(ctx context.Context, token, accountID, content string, mediaURLs []string) (string, error) {
	if len(mediaURLs) > twitterMaxMedia {
		mediaURLs = mediaURLs[:twitterMaxMedia]
	}

	var mediaIDs []string
	for _, mediaURL := range mediaURLs {
		data, err := web.FetchMedia(ctx, mediaURL)
		if err != nil {
			return "", &PublishError{Platform: models.PlatformTwitter, Phase: "media fetch", Body: err.Error()}
		}

		mediaID, err := c.uploadMedia(ctx, token, data)
		if err != nil {
			return "", err
		}
		mediaIDs = append(mediaIDs, mediaID)
	}

	payload := tweetRequest{Text: content}
	if len(mediaIDs) > 0 {
		payload.Media = &tweetMedia{MediaIDs: mediaIDs}
	}

	var result struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	status, body, err := postJSON(ctx, c.HTTPClient, c.APIBaseURL+"/2/tweets", token, payload, &result)
	if err != nil {
		return "", &PublishError{Platform: models.PlatformTwitter, Phase: "publish", Body: err.Error()}
	}
	if status < 200 || status >= 300 {
		return "", &PublishError{Platform: models.PlatformTwitter, Phase: "publish", Body: string(body)}
	}
	if result.Data.ID == "" {
		return "", &PublishError{Platform: models.PlatformTwitter, Phase: "publish", Body: "no tweet id in response"}
	}

	return result.Data.ID, nil
}

func (c *TwitterClient) uploadMedia(ctx context.Context, token string, data []byte) (string, error) {
	form := url.Values{}
	form.Set("media_data", base64.StdEncoding.EncodeToString(data))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.UploadBaseURL+"/1.1/media/upload.json", strings.NewReader(form.Encode()))
	if err != nil {
		return "", &PublishError{Platform: models.PlatformTwitter, Phase: "media upload", Body: err.Error()}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", &PublishError{Platform: models.PlatformTwitter, Phase: "media upload", Body: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &PublishError{Platform: models.PlatformTwitter, Phase: "media upload", Body: err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &PublishError{Platform: models.PlatformTwitter, Phase: "media upload", Body: string(respBody)}
	}

	var result struct {
		MediaIDString string `json:"media_id_string"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", &PublishError{Platform: models.PlatformTwitter, Phase: "media upload", Body: err.Error()}
	}
	if result.MediaIDString == "" {
		return "", &PublishError{Platform: models.PlatformTwitter, Phase: "media upload", Body: "no media id in response"}
	}

	return result.MediaIDString, nil
}

// RefreshToken exchanges a refresh credential for a new access/refresh pair.
// Twitter rotates the refresh token on every exchange.
func (c *TwitterClient) RefreshToken(ctx context.Context, refreshToken string) (*Token, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	form.Set("client_id", c.clientID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.APIBaseURL+"/2/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.clientID, c.clientSecret)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("twitter token endpoint returned %d: %s", resp.StatusCode, respBody)
	}

	var result struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, err
	}
	if result.AccessToken == "" {
		return nil, fmt.Errorf("twitter token endpoint returned no access token")
	}

	token := &Token{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
	}
	if result.ExpiresIn > 0 {
		expiresAt := time.Now().Add(time.Duration(result.ExpiresIn) * time.Second)
		token.ExpiresAt = &expiresAt
	}

	return token, nil
}
