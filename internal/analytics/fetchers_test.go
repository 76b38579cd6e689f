package analytics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonServer(status int, body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
}

func TestTwitterFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2/tweets/tweet-1", r.URL.Path)
		assert.Equal(t, "public_metrics", r.URL.Query().Get("tweet.fields"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Write([]byte(`{"data":{"public_metrics":{"like_count":42,"reply_count":3,"retweet_count":7,"impression_count":1900}}}`))
	}))
	defer srv.Close()

	f := &TwitterFetcher{BaseURL: srv.URL, HTTPClient: srv.Client()}
	m := f.Fetch(context.Background(), "tok", "tweet-1")
	require.NotNil(t, m)

	assert.Equal(t, int64(42), *m.Likes)
	assert.Equal(t, int64(3), *m.Comments)
	assert.Equal(t, int64(7), *m.Shares)
	assert.Equal(t, int64(1900), *m.Impressions)
	assert.Nil(t, m.Reach)
	assert.Nil(t, m.Saves)
	require.NotNil(t, m.UpdatedAt)
}

func TestTwitterFetchMissingImpressions(t *testing.T) {
	srv := jsonServer(http.StatusOK,
		`{"data":{"public_metrics":{"like_count":5,"reply_count":0,"retweet_count":1}}}`)
	defer srv.Close()

	f := &TwitterFetcher{BaseURL: srv.URL, HTTPClient: srv.Client()}
	m := f.Fetch(context.Background(), "tok", "tweet-1")
	require.NotNil(t, m)

	assert.Equal(t, int64(5), *m.Likes)
	assert.Nil(t, m.Impressions)
}

func TestTwitterFetchDegradesToNil(t *testing.T) {
	cases := map[string]*httptest.Server{
		"api error":    jsonServer(http.StatusNotFound, `{"errors":[{"title":"Not Found"}]}`),
		"no metrics":   jsonServer(http.StatusOK, `{"data":{}}`),
		"malformed":    jsonServer(http.StatusOK, `{not json`),
		"rate limited": jsonServer(http.StatusTooManyRequests, ``),
	}
	for name, srv := range cases {
		t.Run(name, func(t *testing.T) {
			defer srv.Close()
			f := &TwitterFetcher{BaseURL: srv.URL, HTTPClient: srv.Client()}
			assert.Nil(t, f.Fetch(context.Background(), "tok", "tweet-1"))
		})
	}
}

func TestFacebookFetch(t *testing.T) {
	srv := jsonServer(http.StatusOK, `{
		"likes": {"summary": {"total_count": 10}},
		"comments": {"summary": {"total_count": 4}},
		"shares": {"count": 2},
		"insights": {"data": [{"name": "post_impressions", "values": [{"value": 250}]}]}
	}`)
	defer srv.Close()

	f := &FacebookFetcher{BaseURL: srv.URL, HTTPClient: srv.Client()}
	m := f.Fetch(context.Background(), "tok", "page_post-1")
	require.NotNil(t, m)

	assert.Equal(t, int64(10), *m.Likes)
	assert.Equal(t, int64(4), *m.Comments)
	assert.Equal(t, int64(2), *m.Shares)
	assert.Equal(t, int64(250), *m.Impressions)
	assert.Nil(t, m.Reach)
	assert.Nil(t, m.Saves)
}

func TestFacebookFetchPartialResponse(t *testing.T) {
	// shares and insights are absent when a post has none; each field maps
	// to nil on its own
	srv := jsonServer(http.StatusOK, `{
		"likes": {"summary": {"total_count": 0}},
		"comments": {"summary": {"total_count": 0}}
	}`)
	defer srv.Close()

	f := &FacebookFetcher{BaseURL: srv.URL, HTTPClient: srv.Client()}
	m := f.Fetch(context.Background(), "tok", "page_post-1")
	require.NotNil(t, m)

	assert.Equal(t, int64(0), *m.Likes)
	assert.Equal(t, int64(0), *m.Comments)
	assert.Nil(t, m.Shares)
	assert.Nil(t, m.Impressions)
}

func TestFacebookFetchDegradesToNil(t *testing.T) {
	srv := jsonServer(http.StatusBadRequest, `{"error":{"message":"Unsupported get request"}}`)
	defer srv.Close()

	f := &FacebookFetcher{BaseURL: srv.URL, HTTPClient: srv.Client()}
	assert.Nil(t, f.Fetch(context.Background(), "tok", "page_post-1"))
}

func TestInstagramFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ig-media-1/insights", r.URL.Path)
		assert.Equal(t, "impressions,reach,likes,comments,saves", r.URL.Query().Get("metric"))
		w.Write([]byte(`{"data":[
			{"name": "impressions", "values": [{"value": 120}]},
			{"name": "reach", "values": [{"value": 95}]},
			{"name": "likes", "values": [{"value": 30}]},
			{"name": "comments", "values": [{"value": 6}]},
			{"name": "saves", "values": [{"value": 11}]}
		]}`))
	}))
	defer srv.Close()

	f := &InstagramFetcher{BaseURL: srv.URL, HTTPClient: srv.Client()}
	m := f.Fetch(context.Background(), "tok", "ig-media-1")
	require.NotNil(t, m)

	assert.Equal(t, int64(120), *m.Impressions)
	assert.Equal(t, int64(95), *m.Reach)
	assert.Equal(t, int64(30), *m.Likes)
	assert.Equal(t, int64(6), *m.Comments)
	assert.Equal(t, int64(11), *m.Saves)
	assert.Nil(t, m.Shares)
}

func TestInstagramFetchMissingMetrics(t *testing.T) {
	srv := jsonServer(http.StatusOK, `{"data":[{"name": "likes", "values": [{"value": 3}]}]}`)
	defer srv.Close()

	f := &InstagramFetcher{BaseURL: srv.URL, HTTPClient: srv.Client()}
	m := f.Fetch(context.Background(), "tok", "ig-media-1")
	require.NotNil(t, m)

	assert.Equal(t, int64(3), *m.Likes)
	assert.Nil(t, m.Impressions)
	assert.Nil(t, m.Reach)
	assert.Nil(t, m.Saves)
}

func TestInstagramFetchDegradesToNil(t *testing.T) {
	srv := jsonServer(http.StatusForbidden, `{"error":{"message":"insights not available"}}`)
	defer srv.Close()

	f := &InstagramFetcher{BaseURL: srv.URL, HTTPClient: srv.Client()}
	assert.Nil(t, f.Fetch(context.Background(), "tok", "ig-media-1"))
}
