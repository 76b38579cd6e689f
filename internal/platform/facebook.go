package platform

import (
	"context"
	"fmt"
	"net/http"

	"crosspost/internal/models"
)

const facebookMaxPhotos = 10

type FacebookClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewFacebookClient() *FacebookClient {
	return &FacebookClient{
		BaseURL:    defaultGraphBaseURL,
		HTTPClient: &http.Client{},
	}
}

var _ Publisher = (*FacebookClient)(nil)

type attachedMedia struct {
	MediaFBID string `json:"media_fbid"`
}

// Publish picks the wire protocol by media count: a plain feed post for text,
// a single photo-publish call for one image, and unpublished photo uploads
// stitched into one feed post for several.
func (c *FacebookClient) Publish(ctx context.Context, token, pageID, content string, mediaURLs []string) (string, error) {
	if len(mediaURLs) > facebookMaxPhotos {
		mediaURLs = mediaURLs[:facebookMaxPhotos]
	}

	switch len(mediaURLs) {
	case 0:
		return c.createFeedPost(ctx, token, pageID, map[string]interface{}{
			"message":      content,
			"access_token": token,
		})
	case 1:
		return c.publishPhoto(ctx, token, pageID, content, mediaURLs[0])
	default:
		photoIDs := make([]string, 0, len(mediaURLs))
		for _, mediaURL := range mediaURLs {
			photoID, err := c.uploadPhoto(ctx, token, pageID, mediaURL)
			if err != nil {
				return "", err
			}
			photoIDs = append(photoIDs, photoID)
		}

		attached := make([]attachedMedia, len(photoIDs))
		for i, id := range photoIDs {
			attached[i] = attachedMedia{MediaFBID: id}
		}

		return c.createFeedPost(ctx, token, pageID, map[string]interface{}{
			"message":        content,
			"attached_media": attached,
			"access_token":   token,
		})
	}
}

func (c *FacebookClient) createFeedPost(ctx context.Context, token, pageID string, payload map[string]interface{}) (string, error) {
	var result struct {
		ID string `json:"id"`
	}
	endpoint := fmt.Sprintf("%s/%s/feed", c.BaseURL, pageID)
	status, body, err := postJSON(ctx, c.HTTPClient, endpoint, "", payload, &result)
	if err != nil {
		return "", &PublishError{Platform: models.PlatformFacebook, Phase: "feed post", Body: err.Error()}
	}
	if status < 200 || status >= 300 {
		return "", &PublishError{Platform: models.PlatformFacebook, Phase: "feed post", Body: string(body)}
	}
	if result.ID == "" {
		return "", &PublishError{Platform: models.PlatformFacebook, Phase: "feed post", Body: "no post id in response"}
	}
	return result.ID, nil
}

// publishPhoto posts one image straight to the page. The response carries
// both a photo id and the id of the feed post it created; the feed post id
// is the one metrics are read from, so it wins when present.
func (c *FacebookClient) publishPhoto(ctx context.Context, token, pageID, content, mediaURL string) (string, error) {
	var result struct {
		ID     string `json:"id"`
		PostID string `json:"post_id"`
	}
	endpoint := fmt.Sprintf("%s/%s/photos", c.BaseURL, pageID)
	payload := map[string]interface{}{
		"url":          mediaURL,
		"caption":      content,
		"access_token": token,
	}
	status, body, err := postJSON(ctx, c.HTTPClient, endpoint, "", payload, &result)
	if err != nil {
		return "", &PublishError{Platform: models.PlatformFacebook, Phase: "photo publish", Body: err.Error()}
	}
	if status < 200 || status >= 300 {
		return "", &PublishError{Platform: models.PlatformFacebook, Phase: "photo publish", Body: string(body)}
	}

	if result.PostID != "" {
		return result.PostID, nil
	}
	if result.ID != "" {
		return result.ID, nil
	}
	return "", &PublishError{Platform: models.PlatformFacebook, Phase: "photo publish", Body: "no post id in response"}
}

func (c *FacebookClient) uploadPhoto(ctx context.Context, token, pageID, mediaURL string) (string, error) {
	var result struct {
		ID string `json:"id"`
	}
	endpoint := fmt.Sprintf("%s/%s/photos", c.BaseURL, pageID)
	payload := map[string]interface{}{
		"url":          mediaURL,
		"published":    false,
		"access_token": token,
	}
	status, body, err := postJSON(ctx, c.HTTPClient, endpoint, "", payload, &result)
	if err != nil {
		return "", &PublishError{Platform: models.PlatformFacebook, Phase: "photo upload", Body: err.Error()}
	}
	if status < 200 || status >= 300 {
		return "", &PublishError{Platform: models.PlatformFacebook, Phase: "photo upload", Body: string(body)}
	}
	if result.ID == "" {
		return "", &PublishError{Platform: models.PlatformFacebook, Phase: "photo upload", Body: "no photo id in response"}
	}
	return result.ID, nil
}
