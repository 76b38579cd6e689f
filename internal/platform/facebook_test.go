package platform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type facebookFake struct {
	t      *testing.T
	photos []map[string]interface{}
	feeds  []map[string]interface{}
}

func (f *facebookFake) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var payload map[string]interface{}
	require.NoError(f.t, json.NewDecoder(r.Body).Decode(&payload))

	switch {
	case strings.HasSuffix(r.URL.Path, "/photos"):
		f.photos = append(f.photos, payload)
		resp := map[string]string{"id": "photo-" + strconv.Itoa(len(f.photos))}
		if published, ok := payload["published"].(bool); !ok || published {
			resp["post_id"] = "page_post-1"
		}
		json.NewEncoder(w).Encode(resp)

	case strings.HasSuffix(r.URL.Path, "/feed"):
		f.feeds = append(f.feeds, payload)
		json.NewEncoder(w).Encode(map[string]string{"id": "page_feed-1"})

	default:
		f.t.Fatalf("unexpected request: %s %s", r.Method, r.URL)
	}
}

func testFacebookClient(srv *httptest.Server) *FacebookClient {
	return &FacebookClient{BaseURL: srv.URL, HTTPClient: srv.Client()}
}

func TestFacebookPublishTextOnly(t *testing.T) {
	fake := &facebookFake{t: t}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	c := testFacebookClient(srv)
	id, err := c.Publish(context.Background(), "tok", "page-1", "plain text", nil)
	require.NoError(t, err)

	assert.Equal(t, "page_feed-1", id)
	assert.Empty(t, fake.photos)
	require.Len(t, fake.feeds, 1)
	assert.Equal(t, "plain text", fake.feeds[0]["message"])
}

func TestFacebookPublishSinglePhoto(t *testing.T) {
	fake := &facebookFake{t: t}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	c := testFacebookClient(srv)
	id, err := c.Publish(context.Background(), "tok", "page-1", "look",
		[]string{"https://cdn.example/one.jpg"})
	require.NoError(t, err)

	// the feed post id wins over the raw photo id
	assert.Equal(t, "page_post-1", id)
	assert.Empty(t, fake.feeds)
	require.Len(t, fake.photos, 1)
	assert.Equal(t, "https://cdn.example/one.jpg", fake.photos[0]["url"])
	assert.Equal(t, "look", fake.photos[0]["caption"])
}

func TestFacebookPublishMultiPhoto(t *testing.T) {
	fake := &facebookFake{t: t}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	c := testFacebookClient(srv)
	id, err := c.Publish(context.Background(), "tok", "page-1", "album",
		[]string{"https://cdn.example/one.jpg", "https://cdn.example/two.jpg"})
	require.NoError(t, err)

	assert.Equal(t, "page_feed-1", id)
	require.Len(t, fake.photos, 2)
	for _, photo := range fake.photos {
		assert.Equal(t, false, photo["published"])
	}

	require.Len(t, fake.feeds, 1)
	attached, ok := fake.feeds[0]["attached_media"].([]interface{})
	require.True(t, ok)
	require.Len(t, attached, 2)
	first := attached[0].(map[string]interface{})
	second := attached[1].(map[string]interface{})
	assert.Equal(t, "photo-1", first["media_fbid"])
	assert.Equal(t, "photo-2", second["media_fbid"])
}

func TestFacebookPublishUploadFailureAborts(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"bad image"}}`))
	}))
	defer srv.Close()

	c := testFacebookClient(srv)
	_, err := c.Publish(context.Background(), "tok", "page-1", "album",
		[]string{"https://cdn.example/one.jpg", "https://cdn.example/two.jpg"})

	var pubErr *PublishError
	require.ErrorAs(t, err, &pubErr)
	assert.Equal(t, "photo upload", pubErr.Phase)
	assert.Contains(t, pubErr.Body, "bad image")
	assert.Equal(t, 1, calls)
}
