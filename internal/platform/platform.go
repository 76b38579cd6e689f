package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Publisher posts content to one social platform and returns the
// platform-assigned post id. The accountID is the platform-side identity the
// post goes out under (page id, business account id); Twitter ignores it
// because the bearer token already binds the target user.
type Publisher interface {
	Publish(ctx context.Context, token, accountID, content string, mediaURLs []string) (string, error)
}

// PublishError carries the raw platform error body plus the protocol phase
// that rejected the call, so the stored error message stays diagnostic.
type PublishError struct {
	Platform string
	Phase    string
	Body     string
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("%s %s failed: %s", e.Platform, e.Phase, e.Body)
}

// ErrNoMedia rejects Instagram publishes before any network call is made.
var ErrNoMedia = errors.New("instagram requires at least one media url")

// postJSON sends a JSON payload and decodes the response into out when the
// status is 2xx. Non-2xx responses come back as (status, rawBody, nil) so the
// caller can wrap them with the right phase.
func postJSON(ctx context.Context, client *http.Client, url, bearer string, payload, out interface{}) (int, []byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, respBody, nil
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return resp.StatusCode, respBody, err
		}
	}
	return resp.StatusCode, respBody, nil
}

func getJSON(ctx context.Context, client *http.Client, url, bearer string, out interface{}) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, err
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, respBody, nil
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return resp.StatusCode, respBody, err
		}
	}
	return resp.StatusCode, respBody, nil
}
