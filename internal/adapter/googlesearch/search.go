// Package googlesearch runs web searches through the Google Programmable
// Search (Custom Search JSON) API.
package googlesearch

import (
	"context"
	"fmt"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	"github.com/couchcryptid/agri-risk-service/internal/domain"
)

// The API returns at most 10 results per page.
const maxResults = 10

// Searcher implements domain.Searcher.
type Searcher struct {
	svc      *customsearch.Service
	engineID string
}

// New creates a Searcher for the given programmable search engine.
func New(ctx context.Context, apiKey, engineID string, opts ...option.ClientOption) (*Searcher, error) {
	svc, err := customsearch.NewService(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("create custom search service: %w", err)
	}
	return &Searcher{svc: svc, engineID: engineID}, nil
}

// Search returns up to limit hits for query.
func (s *Searcher) Search(ctx context.Context, query string, limit int) ([]domain.SearchHit, error) {
	limit = min(max(limit, 1), maxResults)

	res, err := s.svc.Cse.List().
		Cx(s.engineID).
		Q(query).
		Num(int64(limit)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("custom search %q: %w", query, err)
	}

	hits := make([]domain.SearchHit, 0, len(res.Items))
	for _, item := range res.Items {
		if item == nil || item.Link == "" {
			continue
		}
		hits = append(hits, domain.SearchHit{
			Title:   item.Title,
			Link:    item.Link,
			Snippet: item.Snippet,
		})
	}
	return hits, nil
}
