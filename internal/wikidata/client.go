package wikidata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ottersome/tripletforge/internal/cache"
	"github.com/ottersome/tripletforge/internal/model"
	"github.com/ottersome/tripletforge/internal/util"
	"github.com/ottersome/tripletforge/internal/worker"
)

// ErrDisallowed is returned when the knowledge base's robots policy forbids
// fetching from the claims endpoint.
var ErrDisallowed = errors.New("fetch disallowed by robots policy")

// Client fetches entity neighborhoods from a wbgetclaims-shaped knowledge
// base endpoint. It rate-limits per host, honors robots.txt crawl delays,
// retries transient failures with backoff, and serves repeat lookups from
// the cache when one is configured.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *worker.Limiter
	robots     *util.RobotsChecker
	cache      cache.Cache
	maxRetries int
	log        zerolog.Logger

	robotsOnce sync.Once
	robotsErr  error
	crawlDelay time.Duration
}

// NewClient builds a Client from the KB section of the config. The cache may
// be nil, in which case every fetch goes to the network.
func NewClient(cfg model.KBConfig, c cache.Cache, log zerolog.Logger) *Client {
	transport := &http.Transport{
		Proxy:               util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy),
		MaxIdleConnsPerHost: 10,
	}
	httpClient := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: transport,
	}

	cl := &Client{
		baseURL:    cfg.BaseURL,
		userAgent:  cfg.UserAgent,
		httpClient: httpClient,
		limiter:    worker.NewLimiter(cfg.RequestsPerSecond, cfg.BurstSize),
		cache:      c,
		maxRetries: cfg.MaxRetries,
		log:        log.With().Str("component", "wikidata").Logger(),
	}
	if cfg.CheckRobots {
		cl.robots = util.NewRobotsChecker(cfg.UserAgent, cfg.Timeout)
	}
	return cl
}

// FetchNeighbors returns the triplets touching entity, retrying transient
// failures up to the configured retry budget. A failure that survives the
// budget is returned to the caller; the expansion engine treats it as fatal.
func (c *Client) FetchNeighbors(ctx context.Context, entity string, mode Mode) (*NeighborSet, error) {
	if entity == "" {
		return nil, errors.New("empty entity identifier")
	}

	key := cache.Key(entity, string(mode))
	if c.cache != nil {
		if body, ok := c.cache.Get(key); ok {
			set, err := parseNeighbors(entity, body, mode)
			if err == nil {
				return set, nil
			}
			// A cached body that no longer parses is stale; drop and refetch.
			_ = c.cache.Delete(key)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := backoff(attempt)
			c.log.Debug().
				Str("entity", entity).
				Int("attempt", attempt).
				Dur("delay", delay).
				Err(lastErr).
				Msg("retrying fetch")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		body, err := c.fetchOnce(ctx, entity)
		if err == nil {
			set, perr := parseNeighbors(entity, body, mode)
			if perr != nil {
				return nil, fmt.Errorf("entity %s: %w", entity, perr)
			}
			if c.cache != nil {
				_ = c.cache.Set(key, body, 0)
			}
			return set, nil
		}

		lastErr = err
		if !isTransient(err) {
			break
		}
	}
	return nil, fmt.Errorf("fetch %s: %w", entity, lastErr)
}

func (c *Client) fetchOnce(ctx context.Context, entity string) ([]byte, error) {
	if c.robots != nil {
		c.robotsOnce.Do(func() {
			allowed, delay, err := c.robots.CanFetch(ctx, c.baseURL)
			if err != nil {
				c.log.Warn().Err(err).Msg("robots check failed, proceeding")
				return
			}
			if !allowed {
				c.robotsErr = ErrDisallowed
				return
			}
			c.crawlDelay = delay
		})
		if c.robotsErr != nil {
			return nil, c.robotsErr
		}
	}

	if err := c.limiter.WaitWithDelay(ctx, c.baseURL, c.crawlDelay); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(entity), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &transientError{err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		herr := &httpError{status: resp.StatusCode, entity: entity}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, &transientError{herr}
		}
		return nil, herr
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, &transientError{err}
	}
	return body, nil
}

func (c *Client) requestURL(entity string) string {
	q := url.Values{}
	q.Set("action", "wbgetclaims")
	q.Set("entity", entity)
	q.Set("direction", "both")
	q.Set("format", "json")

	sep := "?"
	if strings.Contains(c.baseURL, "?") {
		sep = "&"
	}
	return c.baseURL + sep + q.Encode()
}

type httpError struct {
	status int
	entity string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("entity %s: unexpected status %d", e.entity, e.status)
}

type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func isTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}

// backoff returns an exponential delay with jitter for the given attempt,
// capped at 10 seconds.
func backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt-1)) * 500 * time.Millisecond
	if base > 10*time.Second {
		base = 10 * time.Second
	}
	jitter := time.Duration(rand.Int63n(int64(base) / 4))
	return base + jitter
}
