// Package upstream reads the catalog from the course backend's REST API.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/wise004/Edupress-sub001/pkg/httpclient"
	"github.com/wise004/Edupress-sub001/pkg/tracing"
	"github.com/wise004/Edupress-sub001/services/catalog/internal/domain"
	"github.com/wise004/Edupress-sub001/services/catalog/internal/provider"
)

const (
	serviceName = "course-backend"
	tracerName  = "github.com/wise004/Edupress-sub001/services/catalog/internal/provider/upstream"

	defaultPageSize = 100
	// maxPages bounds the published-course walk if the backend never
	// reports a last page.
	maxPages = 50
)

// Config holds the backend location.
type Config struct {
	BaseURL  string
	PageSize int
}

// Provider fetches courses and categories over HTTP. Every call goes
// through the supplied Doer, normally a circuit breaker over a retrying
// httpclient.Client.
type Provider struct {
	base     *url.URL
	client   httpclient.Doer
	pageSize int
	logger   *slog.Logger
}

var _ provider.Provider = (*Provider)(nil)

// New creates an upstream provider.
func New(cfg Config, client httpclient.Doer, logger *slog.Logger) (*Provider, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse upstream url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("upstream url %q must be absolute", cfg.BaseURL)
	}
	size := cfg.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{base: base, client: client, pageSize: size, logger: logger}, nil
}

// NewDefault builds the provider over a retrying client guarded by a
// circuit breaker named after the backend.
func NewDefault(cfg Config, logger *slog.Logger) (*Provider, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cb := httpclient.NewCircuitBreakerClient(
		httpclient.New(httpclient.DefaultConfig()),
		httpclient.DefaultCircuitBreakerConfig(serviceName),
		logger,
	)
	return New(cfg, cb, logger)
}

// GetAllCourses walks /courses/published until the backend reports the
// last page.
func (p *Provider) GetAllCourses(ctx context.Context) (courses []domain.Course, err error) {
	ctx, span := tracing.Start(ctx, tracerName, "upstream.GetAllCourses")
	defer func() { tracing.End(span, err) }()

	var raws []provider.RawCourse
	for page := 0; page < maxPages; page++ {
		q := url.Values{}
		q.Set("page", strconv.Itoa(page))
		q.Set("size", strconv.Itoa(p.pageSize))

		var batch []provider.RawCourse
		info, err := p.getList(ctx, "/courses/published", q, &batch)
		if err != nil {
			return nil, fmt.Errorf("get published courses: %w", err)
		}
		raws = append(raws, batch...)
		if info.done(page, len(batch)) {
			return provider.Normalize(raws), nil
		}
	}
	p.logger.WarnContext(ctx, "published course walk truncated",
		slog.Int("pages", maxPages),
		slog.Int("courses", len(raws)),
	)
	return provider.Normalize(raws), nil
}

// SearchCourses delegates matching to the backend.
func (p *Provider) SearchCourses(ctx context.Context, term string) (courses []domain.Course, err error) {
	ctx, span := tracing.Start(ctx, tracerName, "upstream.SearchCourses")
	defer func() { tracing.End(span, err) }()

	q := url.Values{}
	q.Set("query", term)
	q.Set("page", "0")
	q.Set("size", strconv.Itoa(p.pageSize))

	var raws []provider.RawCourse
	if _, err := p.getList(ctx, "/courses/search", q, &raws); err != nil {
		return nil, fmt.Errorf("search courses: %w", err)
	}
	return provider.Normalize(raws), nil
}

// GetAllCategories fetches /categories.
func (p *Provider) GetAllCategories(ctx context.Context) (categories []domain.Category, err error) {
	ctx, span := tracing.Start(ctx, tracerName, "upstream.GetAllCategories")
	defer func() { tracing.End(span, err) }()

	var raws []provider.RawCategory
	if _, err := p.getList(ctx, "/categories", nil, &raws); err != nil {
		return nil, fmt.Errorf("get categories: %w", err)
	}
	return provider.NormalizeCategories(raws), nil
}

// Ping issues a one-record published-course request.
func (p *Provider) Ping(ctx context.Context) error {
	q := url.Values{}
	q.Set("page", "0")
	q.Set("size", "1")

	resp, err := p.do(ctx, "/courses/published", q)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

// pageInfo is the subset of a Spring page the walk needs.
type pageInfo struct {
	paged      bool
	last       *bool
	totalPages int
}

func (i pageInfo) done(page, n int) bool {
	switch {
	case !i.paged, n == 0:
		return true
	case i.last != nil:
		return *i.last
	case i.totalPages > 0:
		return page+1 >= i.totalPages
	default:
		return false
	}
}

// getList decodes either a bare JSON array or a page envelope whose
// records sit under "content".
func (p *Provider) getList(ctx context.Context, path string, q url.Values, dst any) (pageInfo, error) {
	resp, err := p.do(ctx, path, q)
	if err != nil {
		return pageInfo{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return pageInfo{}, fmt.Errorf("read response: %w", err)
	}
	return decodeList(body, dst)
}

func decodeList(body []byte, dst any) (pageInfo, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return pageInfo{}, nil
	}

	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, dst); err != nil {
			return pageInfo{}, fmt.Errorf("decode list: %w", err)
		}
		return pageInfo{}, nil
	}

	var page struct {
		Content    json.RawMessage `json:"content"`
		Data       json.RawMessage `json:"data"`
		Last       *bool           `json:"last"`
		TotalPages int             `json:"totalPages"`
	}
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return pageInfo{}, fmt.Errorf("decode page: %w", err)
	}

	items := page.Content
	if len(items) == 0 {
		items = page.Data
	}
	if len(items) > 0 && !bytes.Equal(items, []byte("null")) {
		if err := json.Unmarshal(items, dst); err != nil {
			return pageInfo{}, fmt.Errorf("decode page content: %w", err)
		}
	}
	return pageInfo{paged: true, last: page.Last, totalPages: page.TotalPages}, nil
}

func (p *Provider) do(ctx context.Context, path string, q url.Values) (*http.Response, error) {
	u := *p.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	if q != nil {
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", serviceName, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, httpclient.ParseResponseError(resp, serviceName)
	}
	return resp, nil
}
