// Package elasticsearch serves course search from an Elasticsearch index
// while another provider stays the source of truth for the collection.
package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/wise004/Edupress-sub001/services/catalog/internal/domain"
	"github.com/wise004/Edupress-sub001/services/catalog/internal/provider"
)

// maxHits bounds one search response. The catalog is small enough that a
// search never needs a second page.
const maxHits = 1000

// Config holds the index connection settings.
type Config struct {
	URL   string
	Index string
}

// Provider wraps a base provider. Every full fetch from the base is
// mirrored into the index; SearchCourses queries the index.
type Provider struct {
	base   provider.Provider
	client *es.Client
	index  string
	logger *slog.Logger
	// generation tags the documents of the latest sync so documents of
	// courses that disappeared can be deleted.
	generation atomic.Int64
}

var _ provider.Provider = (*Provider)(nil)

type document struct {
	domain.Course
	Generation int64 `json:"sync_generation"`
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source document `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []struct {
		Index struct {
			ID    string `json:"_id"`
			Error struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"index"`
	} `json:"items"`
}

type errorResponse struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
}

// New connects to the cluster and creates the index when it is missing.
func New(ctx context.Context, cfg Config, base provider.Provider, logger *slog.Logger) (*Provider, error) {
	if cfg.URL == "" {
		return nil, errors.New("elasticsearch: url is required")
	}
	if cfg.Index == "" {
		cfg.Index = DefaultIndexName
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := es.NewClient(es.Config{Addresses: []string{cfg.URL}})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: create client: %w", err)
	}

	p := &Provider{base: base, client: client, index: cfg.Index, logger: logger}
	if err := p.ensureIndex(ctx); err != nil {
		return nil, fmt.Errorf("elasticsearch: ensure index: %w", err)
	}
	return p, nil
}

func (p *Provider) ensureIndex(ctx context.Context) error {
	res, err := p.client.Indices.Exists([]string{p.index}, p.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	_ = res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = p.client.Indices.Create(p.index,
		p.client.Indices.Create.WithBody(strings.NewReader(indexMapping)),
		p.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer res.Body.Close()
	if err := responseError(res); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	p.logger.Info("elasticsearch index created", slog.String("index", p.index))
	return nil
}

// GetAllCourses fetches from the base provider and mirrors the result into
// the index. A failed sync is logged; search then answers from the last
// successful sync.
func (p *Provider) GetAllCourses(ctx context.Context) ([]domain.Course, error) {
	courses, err := p.base.GetAllCourses(ctx)
	if err != nil {
		return nil, err
	}
	if err := p.Sync(ctx, courses); err != nil {
		p.logger.ErrorContext(ctx, "course index sync failed",
			slog.String("index", p.index),
			slog.String("error", err.Error()),
		)
	}
	return courses, nil
}

// GetAllCategories delegates to the base provider.
func (p *Provider) GetAllCategories(ctx context.Context) ([]domain.Category, error) {
	return p.base.GetAllCategories(ctx)
}

// Ping checks the base provider. The index is optional for listing, see
// PingIndex.
func (p *Provider) Ping(ctx context.Context) error {
	return p.base.Ping(ctx)
}

// PingIndex checks the cluster.
func (p *Provider) PingIndex(ctx context.Context) error {
	res, err := p.client.Ping(p.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch ping: unexpected status %s", res.Status())
	}
	return nil
}

// Sync bulk-indexes courses under a new generation and deletes documents
// left over from earlier generations.
func (p *Provider) Sync(ctx context.Context, courses []domain.Course) error {
	gen := time.Now().UnixNano()
	if prev := p.generation.Load(); gen <= prev {
		gen = prev + 1
	}

	if len(courses) > 0 {
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		for _, c := range courses {
			action := map[string]any{"index": map[string]any{"_index": p.index, "_id": c.ID}}
			if err := enc.Encode(action); err != nil {
				return fmt.Errorf("encode bulk action: %w", err)
			}
			if err := enc.Encode(document{Course: c, Generation: gen}); err != nil {
				return fmt.Errorf("encode course %s: %w", c.ID, err)
			}
		}

		res, err := p.client.Bulk(&buf,
			p.client.Bulk.WithIndex(p.index),
			p.client.Bulk.WithRefresh("true"),
			p.client.Bulk.WithContext(ctx),
		)
		if err != nil {
			return fmt.Errorf("bulk index: %w", err)
		}
		defer res.Body.Close()
		if err := responseError(res); err != nil {
			return fmt.Errorf("bulk index: %w", err)
		}

		var bulk bulkResponse
		if err := json.NewDecoder(res.Body).Decode(&bulk); err != nil {
			return fmt.Errorf("decode bulk response: %w", err)
		}
		if bulk.Errors {
			var msgs []string
			for _, item := range bulk.Items {
				if item.Index.Error.Type != "" {
					msgs = append(msgs, fmt.Sprintf("id=%s: %s: %s", item.Index.ID, item.Index.Error.Type, item.Index.Error.Reason))
				}
			}
			return fmt.Errorf("bulk index: partial errors: %s", strings.Join(msgs, "; "))
		}
	}

	query := map[string]any{
		"query": map[string]any{
			"range": map[string]any{"sync_generation": map[string]any{"lt": gen}},
		},
	}
	body, err := json.Marshal(query)
	if err != nil {
		return fmt.Errorf("encode prune query: %w", err)
	}
	res, err := p.client.DeleteByQuery([]string{p.index}, bytes.NewReader(body),
		p.client.DeleteByQuery.WithRefresh(true),
		p.client.DeleteByQuery.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("prune index: %w", err)
	}
	defer res.Body.Close()
	if err := responseError(res); err != nil {
		return fmt.Errorf("prune index: %w", err)
	}

	p.generation.Store(gen)
	p.logger.DebugContext(ctx, "course index synced",
		slog.String("index", p.index),
		slog.Int("courses", len(courses)),
	)
	return nil
}

// SearchCourses matches term as a case-insensitive substring of title or
// description.
func (p *Provider) SearchCourses(ctx context.Context, term string) ([]domain.Course, error) {
	body, err := json.Marshal(searchQuery(term))
	if err != nil {
		return nil, fmt.Errorf("encode search query: %w", err)
	}

	res, err := p.client.Search(
		p.client.Search.WithIndex(p.index),
		p.client.Search.WithBody(bytes.NewReader(body)),
		p.client.Search.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search: %w", err)
	}
	defer res.Body.Close()
	if err := responseError(res); err != nil {
		return nil, fmt.Errorf("elasticsearch search: %w", err)
	}

	var sr searchResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("elasticsearch search: decode response: %w", err)
	}
	courses := make([]domain.Course, 0, len(sr.Hits.Hits))
	for _, hit := range sr.Hits.Hits {
		courses = append(courses, hit.Source.Course)
	}
	return courses, nil
}

func searchQuery(term string) map[string]any {
	pattern := "*" + escapeWildcard(strings.TrimSpace(term)) + "*"
	wildcard := func(field string) map[string]any {
		return map[string]any{
			"wildcard": map[string]any{
				field: map[string]any{"value": pattern, "case_insensitive": true},
			},
		}
	}
	return map[string]any{
		"size": maxHits,
		"query": map[string]any{
			"bool": map[string]any{
				"should":               []any{wildcard("title"), wildcard("description")},
				"minimum_should_match": 1,
			},
		},
		"sort": []any{map[string]any{"id": "asc"}},
	}
}

// escapeWildcard escapes the characters the wildcard query treats as
// operators.
func escapeWildcard(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r == '*' || r == '?' || r == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func responseError(res *esapi.Response) error {
	if !res.IsError() {
		return nil
	}
	data, _ := io.ReadAll(res.Body)
	var er errorResponse
	if json.Unmarshal(data, &er) == nil && er.Error.Type != "" {
		return fmt.Errorf("%s: %s", er.Error.Type, er.Error.Reason)
	}
	return fmt.Errorf("unexpected status %s", res.Status())
}
