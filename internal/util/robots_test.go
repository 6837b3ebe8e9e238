package util

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func robotsServer(t *testing.T, body string, status int, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		if hits != nil {
			hits.Add(1)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCanFetchAllowed(t *testing.T) {
	srv := robotsServer(t, "User-agent: *\nAllow: /\nCrawl-delay: 1\n", http.StatusOK, nil)
	checker := NewRobotsChecker("tripletforge-test", time.Second)

	allowed, delay, err := checker.CanFetch(context.Background(), srv.URL+"/w/api.php")
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, time.Second, delay)
}

func TestCanFetchDisallowed(t *testing.T) {
	srv := robotsServer(t, "User-agent: *\nDisallow: /w/\n", http.StatusOK, nil)
	checker := NewRobotsChecker("tripletforge-test", time.Second)

	allowed, _, err := checker.CanFetch(context.Background(), srv.URL+"/w/api.php")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestCanFetchMissingRobotsAllows(t *testing.T) {
	srv := robotsServer(t, "", http.StatusNotFound, nil)
	checker := NewRobotsChecker("tripletforge-test", time.Second)

	allowed, _, err := checker.CanFetch(context.Background(), srv.URL+"/anything")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestCanFetchCachesPerHost(t *testing.T) {
	var hits atomic.Int32
	srv := robotsServer(t, "User-agent: *\nAllow: /\n", http.StatusOK, &hits)
	checker := NewRobotsChecker("tripletforge-test", time.Second)

	for i := 0; i < 3; i++ {
		_, _, err := checker.CanFetch(context.Background(), srv.URL+"/w/api.php")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), hits.Load(), "robots.txt fetched once per host")
}

func TestCanFetchUnreachableHostAllows(t *testing.T) {
	checker := NewRobotsChecker("tripletforge-test", 100*time.Millisecond)

	allowed, _, err := checker.CanFetch(context.Background(), "http://127.0.0.1:1/api")
	require.NoError(t, err)
	assert.True(t, allowed, "unreachable robots.txt allows by default")
}
