package googlesearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func testSearcher(t *testing.T, handler http.HandlerFunc) *Searcher {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	s, err := New(context.Background(), "test-key", "engine-123",
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return s
}

func TestSearch_MapsItems(t *testing.T) {
	s := testSearcher(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "engine-123", q.Get("cx"))
		assert.Equal(t, "drought advisory Pune", q.Get("q"))
		assert.Equal(t, "3", q.Get("num"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[
			{"title":"IMD Agromet Advisory","link":"https://mausam.imd.gov.in/agromet","snippet":"District advisories"},
			{"title":"No link"},
			{"title":"ICAR drought guide","link":"https://icar.org.in/drought"}
		]}`))
	})

	hits, err := s.Search(context.Background(), "drought advisory Pune", 3)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "IMD Agromet Advisory", hits[0].Title)
	assert.Equal(t, "https://mausam.imd.gov.in/agromet", hits[0].Link)
	assert.Equal(t, "District advisories", hits[0].Snippet)
	assert.Equal(t, "https://icar.org.in/drought", hits[1].Link)
}

func TestSearch_ClampsLimit(t *testing.T) {
	s := testSearcher(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "10", r.URL.Query().Get("num"))
		_, _ = w.Write([]byte(`{}`))
	})

	hits, err := s.Search(context.Background(), "frost", 50)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearch_APIError(t *testing.T) {
	s := testSearcher(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"Quota exceeded"}}`))
	})

	_, err := s.Search(context.Background(), "pests", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pests")
}
