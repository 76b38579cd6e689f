package platform

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"crosspost/internal/models"
)

const (
	defaultGraphBaseURL = "https://graph.facebook.com/v19.0"

	instagramMaxCarousel = 10
)

type InstagramClient struct {
	BaseURL      string
	HTTPClient   *http.Client
	PollInterval time.Duration
	PollTimeout  time.Duration
}

func NewInstagramClient() *InstagramClient {
	return &InstagramClient{
		BaseURL:      defaultGraphBaseURL,
		HTTPClient:   &http.Client{},
		PollInterval: time.Second,
		PollTimeout:  10 * time.Second,
	}
}

var _ Publisher = (*InstagramClient)(nil)

// Publish creates one container per image, waits for each to finish
// processing, and publishes the result. One image publishes its container
// directly; several are wrapped in a carousel container referencing all
// children. Text-only posts are rejected before any network call.
func (c *InstagramClient) Publish(ctx context.Context, token, accountID, content string, mediaURLs []string) (string, error) {
	if len(mediaURLs) == 0 {
		return "", ErrNoMedia
	}
	if len(mediaURLs) > instagramMaxCarousel {
		mediaURLs = mediaURLs[:instagramMaxCarousel]
	}

	if len(mediaURLs) == 1 {
		containerID, err := c.createContainer(ctx, token, accountID, map[string]interface{}{
			"image_url":    mediaURLs[0],
			"caption":      content,
			"access_token": token,
		})
		if err != nil {
			return "", err
		}
		if err := c.waitForContainer(ctx, token, containerID); err != nil {
			return "", err
		}
		return c.publishContainer(ctx, token, accountID, containerID)
	}

	// Children are processed sequentially: the carousel container cannot
	// reference a child that is still in progress.
	childIDs := make([]string, 0, len(mediaURLs))
	for _, mediaURL := range mediaURLs {
		childID, err := c.createContainer(ctx, token, accountID, map[string]interface{}{
			"image_url":        mediaURL,
			"is_carousel_item": true,
			"access_token":     token,
		})
		if err != nil {
			return "", err
		}
		if err := c.waitForContainer(ctx, token, childID); err != nil {
			return "", err
		}
		childIDs = append(childIDs, childID)
	}

	carouselID, err := c.createContainer(ctx, token, accountID, map[string]interface{}{
		"media_type":   "CAROUSEL",
		"caption":      content,
		"children":     strings.Join(childIDs, ","),
		"access_token": token,
	})
	if err != nil {
		return "", &PublishError{Platform: models.PlatformInstagram, Phase: "carousel creation", Body: err.Error()}
	}
	if err := c.waitForContainer(ctx, token, carouselID); err != nil {
		return "", err
	}

	return c.publishContainer(ctx, token, accountID, carouselID)
}

func (c *InstagramClient) createContainer(ctx context.Context, token, accountID string, payload map[string]interface{}) (string, error) {
	var result struct {
		ID string `json:"id"`
	}
	endpoint := fmt.Sprintf("%s/%s/media", c.BaseURL, accountID)
	status, body, err := postJSON(ctx, c.HTTPClient, endpoint, "", payload, &result)
	if err != nil {
		return "", &PublishError{Platform: models.PlatformInstagram, Phase: "container creation", Body: err.Error()}
	}
	if status < 200 || status >= 300 {
		return "", &PublishError{Platform: models.PlatformInstagram, Phase: "container creation", Body: string(body)}
	}
	if result.ID == "" {
		return "", &PublishError{Platform: models.PlatformInstagram, Phase: "container creation", Body: "no container id in response"}
	}
	return result.ID, nil
}

// waitForContainer polls the container status until FINISHED, within the
// poll budget. An ERROR status or an exhausted budget fails the publish.
func (c *InstagramClient) waitForContainer(ctx context.Context, token, containerID string) error {
	deadline := time.Now().Add(c.PollTimeout)

	for {
		endpoint := fmt.Sprintf("%s/%s?fields=status_code&access_token=%s",
			c.BaseURL, containerID, url.QueryEscape(token))

		var result struct {
			StatusCode string `json:"status_code"`
		}
		status, body, err := getJSON(ctx, c.HTTPClient, endpoint, "", &result)
		if err != nil {
			return &PublishError{Platform: models.PlatformInstagram, Phase: "status check", Body: err.Error()}
		}
		if status < 200 || status >= 300 {
			return &PublishError{Platform: models.PlatformInstagram, Phase: "status check", Body: string(body)}
		}

		switch result.StatusCode {
		case "FINISHED":
			return nil
		case "ERROR":
			return &PublishError{Platform: models.PlatformInstagram, Phase: "status check",
				Body: fmt.Sprintf("container %s failed processing", containerID)}
		}

		if time.Now().After(deadline) {
			return &PublishError{Platform: models.PlatformInstagram, Phase: "status check",
				Body: fmt.Sprintf("container %s not ready after %s", containerID, c.PollTimeout)}
		}

		select {
		case <-ctx.Done():
			return &PublishError{Platform: models.PlatformInstagram, Phase: "status check", Body: ctx.Err().Error()}
		case <-time.After(c.PollInterval):
		}
	}
}

func (c *InstagramClient) publishContainer(ctx context.Context, token, accountID, containerID string) (string, error) {
	var result struct {
		ID string `json:"id"`
	}
	endpoint := fmt.Sprintf("%s/%s/media_publish", c.BaseURL, accountID)
	payload := map[string]string{
		"creation_id":  containerID,
		"access_token": token,
	}
	status, body, err := postJSON(ctx, c.HTTPClient, endpoint, "", payload, &result)
	if err != nil {
		return "", &PublishError{Platform: models.PlatformInstagram, Phase: "publish", Body: err.Error()}
	}
	if status < 200 || status >= 300 {
		return "", &PublishError{Platform: models.PlatformInstagram, Phase: "publish", Body: string(body)}
	}
	if result.ID == "" {
		return "", &PublishError{Platform: models.PlatformInstagram, Phase: "publish", Body: "no media id in response"}
	}
	return result.ID, nil
}
