package wikidata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ottersome/tripletforge/internal/cache"
	"github.com/ottersome/tripletforge/internal/model"
)

const sampleClaims = `{
	"claims": {
		"P26": [
			{
				"id": "Q42$stmt-1",
				"mainsnak": {
					"snaktype": "value",
					"datavalue": {"type": "wikibase-entityid", "value": {"id": "Q463035"}}
				},
				"qualifiers": {
					"P1534": [
						{
							"snaktype": "value",
							"datavalue": {"type": "wikibase-entityid", "value": {"id": "Q99521170"}}
						}
					],
					"P580": [
						{
							"snaktype": "value",
							"datavalue": {"type": "time", "value": {"time": "+1991-00-00T00:00:00Z"}}
						}
					]
				}
			}
		],
		"P800": [
			{
				"id": "Q42$stmt-2",
				"mainsnak": {
					"snaktype": "value",
					"datavalue": {"type": "wikibase-entityid", "value": {"id": "Q25169"}}
				}
			}
		],
		"P50": [
			{
				"id": "Q25169$stmt-3",
				"subject": "Q25169",
				"mainsnak": {
					"snaktype": "value",
					"datavalue": {"type": "wikibase-entityid", "value": {"id": "Q42"}}
				}
			}
		],
		"P569": [
			{
				"id": "Q42$stmt-4",
				"mainsnak": {
					"snaktype": "value",
					"datavalue": {"type": "time", "value": {"time": "+1952-03-11T00:00:00Z"}}
				}
			}
		]
	}
}`

func testConfig(baseURL string) model.KBConfig {
	return model.KBConfig{
		BaseURL:           baseURL,
		UserAgent:         "tripletforge-test/0.1",
		Timeout:           2 * time.Second,
		MaxRetries:        2,
		RequestsPerSecond: 1000,
		BurstSize:         1000,
	}
}

func TestParseNeighborsSeparate(t *testing.T) {
	set, err := parseNeighbors("Q42", []byte(sampleClaims), ModeSeparate)
	require.NoError(t, err)

	assert.True(t, set.Triplets.Contains(model.Triplet{Head: "Q42", Relation: "P26", Tail: "Q463035"}))
	assert.True(t, set.Triplets.Contains(model.Triplet{Head: "Q42", Relation: "P800", Tail: "Q25169"}))
	// Statement with a subject field is an incoming edge.
	assert.True(t, set.Triplets.Contains(model.Triplet{Head: "Q25169", Relation: "P50", Tail: "Q42"}))
	// Literal-valued statement contributes no triplet.
	assert.Len(t, set.Triplets, 3)

	assert.Equal(t, "Q463035", set.Forward["Q42$stmt-1"])
	assert.Equal(t, "Q25169", set.Forward["Q42$stmt-2"])

	_, hasQual := set.Qualifiers[model.Triplet{Head: "Q42", Relation: "P26", Tail: "Q463035"}]
	assert.True(t, hasQual, "qualifier payload should be kept out-of-band")
}

func TestParseNeighborsExpanded(t *testing.T) {
	set, err := parseNeighbors("Q42", []byte(sampleClaims), ModeExpanded)
	require.NoError(t, err)

	// Entity-valued qualifier becomes a synthetic triplet; the time
	// qualifier is dropped.
	assert.True(t, set.Triplets.Contains(model.Triplet{Head: "Q42", Relation: "P1534", Tail: "Q99521170"}))
	assert.Len(t, set.Triplets, 4)
	assert.Empty(t, set.Qualifiers)
}

func TestParseNeighborsAPIError(t *testing.T) {
	body := `{"error": {"code": "no-such-entity", "info": "Could not find an entity with the ID \"Q0\"."}}`
	_, err := parseNeighbors("Q0", []byte(body), ModeSeparate)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no-such-entity")
}

func TestFetchNeighbors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "wbgetclaims", r.URL.Query().Get("action"))
		assert.Equal(t, "Q42", r.URL.Query().Get("entity"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleClaims))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), nil, zerolog.Nop())
	set, err := client.FetchNeighbors(context.Background(), "Q42", ModeSeparate)
	require.NoError(t, err)
	assert.Len(t, set.Triplets, 3)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchNeighborsRetriesTransient(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(sampleClaims))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), nil, zerolog.Nop())
	set, err := client.FetchNeighbors(context.Background(), "Q42", ModeSeparate)
	require.NoError(t, err)
	assert.Len(t, set.Triplets, 3)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetchNeighborsNoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), nil, zerolog.Nop())
	_, err := client.FetchNeighbors(context.Background(), "Q42", ModeSeparate)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchNeighborsExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), nil, zerolog.Nop())
	_, err := client.FetchNeighbors(context.Background(), "Q42", ModeSeparate)
	require.Error(t, err)
	// Initial attempt plus two retries.
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchNeighborsUsesCache(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(sampleClaims))
	}))
	defer srv.Close()

	c := cache.NewMemoryCache(time.Minute, time.Minute)
	client := NewClient(testConfig(srv.URL), c, zerolog.Nop())

	_, err := client.FetchNeighbors(context.Background(), "Q42", ModeSeparate)
	require.NoError(t, err)
	_, err = client.FetchNeighbors(context.Background(), "Q42", ModeSeparate)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load(), "second fetch should hit the cache")

	// A different qualifier mode has its own cache key.
	_, err = client.FetchNeighbors(context.Background(), "Q42", ModeExpanded)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetchNeighborsEmptyEntity(t *testing.T) {
	client := NewClient(testConfig("http://unused.invalid"), nil, zerolog.Nop())
	_, err := client.FetchNeighbors(context.Background(), "", ModeSeparate)
	require.Error(t, err)
}
