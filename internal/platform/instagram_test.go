package platform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// instagramFake records every Graph API call in order and answers container
// creation, status polling, and publish.
type instagramFake struct {
	t          *testing.T
	calls      []string
	containers int
	statusFor  map[string]string
	created    []map[string]interface{}
}

func newInstagramFake(t *testing.T) *instagramFake {
	return &instagramFake{t: t, statusFor: map[string]string{}}
}

func (f *instagramFake) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/media"):
		var payload map[string]interface{}
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&payload))
		f.created = append(f.created, payload)

		f.containers++
		id := "c" + strconv.Itoa(f.containers)
		f.calls = append(f.calls, "create "+id)
		json.NewEncoder(w).Encode(map[string]string{"id": id})

	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/media_publish"):
		f.calls = append(f.calls, "publish")
		json.NewEncoder(w).Encode(map[string]string{"id": "ig-post-9"})

	case r.Method == http.MethodGet && r.URL.Query().Get("fields") == "status_code":
		id := strings.TrimPrefix(r.URL.Path, "/")
		f.calls = append(f.calls, "status "+id)
		status := f.statusFor[id]
		if status == "" {
			status = "FINISHED"
		}
		json.NewEncoder(w).Encode(map[string]string{"status_code": status})

	default:
		f.t.Fatalf("unexpected request: %s %s", r.Method, r.URL)
	}
}

func testInstagramClient(srv *httptest.Server) *InstagramClient {
	return &InstagramClient{
		BaseURL:      srv.URL,
		HTTPClient:   srv.Client(),
		PollInterval: time.Millisecond,
		PollTimeout:  100 * time.Millisecond,
	}
}

func TestInstagramPublishNoMedia(t *testing.T) {
	fake := newInstagramFake(t)
	srv := httptest.NewServer(fake)
	defer srv.Close()

	c := testInstagramClient(srv)
	_, err := c.Publish(context.Background(), "tok", "ig-1", "caption", nil)

	assert.ErrorIs(t, err, ErrNoMedia)
	assert.Empty(t, fake.calls)
}

func TestInstagramPublishSingleImage(t *testing.T) {
	fake := newInstagramFake(t)
	srv := httptest.NewServer(fake)
	defer srv.Close()

	c := testInstagramClient(srv)
	id, err := c.Publish(context.Background(), "tok", "ig-1", "caption",
		[]string{"https://cdn.example/one.jpg"})
	require.NoError(t, err)

	assert.Equal(t, "ig-post-9", id)
	assert.Equal(t, []string{"create c1", "status c1", "publish"}, fake.calls)

	require.Len(t, fake.created, 1)
	assert.Equal(t, "https://cdn.example/one.jpg", fake.created[0]["image_url"])
	assert.Equal(t, "caption", fake.created[0]["caption"])
}

func TestInstagramPublishCarousel(t *testing.T) {
	fake := newInstagramFake(t)
	srv := httptest.NewServer(fake)
	defer srv.Close()

	c := testInstagramClient(srv)
	id, err := c.Publish(context.Background(), "tok", "ig-1", "caption",
		[]string{"https://cdn.example/one.jpg", "https://cdn.example/two.jpg"})
	require.NoError(t, err)

	assert.Equal(t, "ig-post-9", id)
	assert.Equal(t, []string{
		"create c1", "status c1",
		"create c2", "status c2",
		"create c3", "status c3",
		"publish",
	}, fake.calls)

	require.Len(t, fake.created, 3)
	assert.Equal(t, true, fake.created[0]["is_carousel_item"])
	assert.Equal(t, true, fake.created[1]["is_carousel_item"])
	assert.Equal(t, "CAROUSEL", fake.created[2]["media_type"])
	assert.Equal(t, "c1,c2", fake.created[2]["children"])
	assert.Equal(t, "caption", fake.created[2]["caption"])
}

func TestInstagramPublishContainerError(t *testing.T) {
	fake := newInstagramFake(t)
	fake.statusFor["c1"] = "ERROR"
	srv := httptest.NewServer(fake)
	defer srv.Close()

	c := testInstagramClient(srv)
	_, err := c.Publish(context.Background(), "tok", "ig-1", "caption",
		[]string{"https://cdn.example/one.jpg"})

	var pubErr *PublishError
	require.ErrorAs(t, err, &pubErr)
	assert.Equal(t, "status check", pubErr.Phase)
	assert.NotContains(t, fake.calls, "publish")
}

func TestInstagramPublishPollTimeout(t *testing.T) {
	fake := newInstagramFake(t)
	fake.statusFor["c1"] = "IN_PROGRESS"
	srv := httptest.NewServer(fake)
	defer srv.Close()

	c := testInstagramClient(srv)
	c.PollTimeout = 5 * time.Millisecond

	_, err := c.Publish(context.Background(), "tok", "ig-1", "caption",
		[]string{"https://cdn.example/one.jpg"})

	var pubErr *PublishError
	require.ErrorAs(t, err, &pubErr)
	assert.Contains(t, pubErr.Body, "not ready")
}
