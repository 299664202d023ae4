package healthkart

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"dealwatch/internal/common/cache"
	"dealwatch/internal/common/config"
	"dealwatch/internal/common/errors"
	"dealwatch/internal/common/logger"
	"dealwatch/internal/common/metrics"
	"dealwatch/internal/common/retry"
	"dealwatch/internal/domain"
)

// PageFetcher fetches one page of a category listing.
type PageFetcher interface {
	FetchCategoryPage(ctx context.Context, categoryCode string, pageNo, perPage int) (*CategoryPageResponse, error)
}

// httpPageFetcher is the base transport: rate-limited HTTP GET, envelope
// validation, optional short-TTL page cache.
type httpPageFetcher struct {
	baseURL    string
	httpClient *http.Client
	logger     logger.Logger
	cache      cache.Cache
	cacheTTL   time.Duration

	// Minimum inter-request delay, owned by this instance. The mutex covers
	// lastRequest so concurrent category fetches share one limit.
	requestDelay time.Duration
	mu           sync.Mutex
	lastRequest  time.Time
}

func (f *httpPageFetcher) FetchCategoryPage(ctx context.Context, categoryCode string, pageNo, perPage int) (*CategoryPageResponse, error) {
	cacheKey := fmt.Sprintf("hk:cat:%s:p%d:s%d", categoryCode, pageNo, perPage)

	if f.cache != nil {
		if data, err := f.cache.Get(ctx, cacheKey); err == nil {
			var page CategoryPageResponse
			if err := json.Unmarshal(data, &page); err == nil {
				f.logger.Debug("catalog page served from cache", map[string]interface{}{
					"category": categoryCode,
					"page":     pageNo,
				})
				return &page, nil
			}
		}
	}

	f.waitForRateLimit(ctx)

	endpoint := fmt.Sprintf("%s/results", f.baseURL)
	params := url.Values{}
	params.Set("catName", categoryCode)
	params.Set("pageNo", strconv.Itoa(pageNo))
	params.Set("perPage", strconv.Itoa(perPage))
	params.Set("excludeOOS", "false")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, errors.NewCatalogFetchError(endpoint, 0, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		metrics.CatalogRequestsTotal.WithLabelValues(categoryCode, "error").Inc()
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.NewTimeoutError("catalog page fetch", err)
		}
		return nil, errors.NewCatalogFetchError(endpoint, 0, err)
	}
	defer resp.Body.Close()

	metrics.CatalogRequestsTotal.WithLabelValues(categoryCode, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, errors.NewCatalogFetchError(endpoint, resp.StatusCode,
			fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body)))
	}

	var page CategoryPageResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, errors.NewCatalogBadResponseError(endpoint, fmt.Sprintf("decode failed: %v", err))
	}

	if page.Exception {
		return nil, errors.NewCatalogBadResponseError(endpoint, "response envelope reports an exception")
	}
	if page.Items == nil {
		return nil, errors.NewCatalogBadResponseError(endpoint, "response envelope has no items array")
	}

	if f.cache != nil && f.cacheTTL > 0 {
		if data, err := json.Marshal(&page); err == nil {
			if err := f.cache.Set(ctx, cacheKey, data, f.cacheTTL); err != nil {
				f.logger.Warn("catalog page cache write failed", map[string]interface{}{
					"key":   cacheKey,
					"error": err.Error(),
				})
			}
		}
	}

	return &page, nil
}

// waitForRateLimit blocks until at least requestDelay has passed since the
// previous request made through this fetcher. The remaining wait is
// re-evaluated under the lock after every sleep: another goroutine may have
// stamped lastRequest while we were sleeping unlocked.
func (f *httpPageFetcher) waitForRateLimit(ctx context.Context) {
	f.mu.Lock()
	for {
		wait := f.requestDelay - time.Since(f.lastRequest)
		if wait <= 0 {
			break
		}
		f.mu.Unlock()
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		f.mu.Lock()
	}
	f.lastRequest = time.Now()
	f.mu.Unlock()
}

// retryingPageFetcher decorates a PageFetcher with bounded retries. It
// implements the same interface and never mutates the wrapped fetcher.
type retryingPageFetcher struct {
	next    PageFetcher
	retrier *retry.Retrier
	opts    retry.Options
}

func (r *retryingPageFetcher) FetchCategoryPage(ctx context.Context, categoryCode string, pageNo, perPage int) (*CategoryPageResponse, error) {
	var page *CategoryPageResponse
	err := r.retrier.Do(ctx, "catalog page fetch", r.opts, func(ctx context.Context) error {
		var err error
		page, err = r.next.FetchCategoryPage(ctx, categoryCode, pageNo, perPage)
		return err
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// Client assembles a complete, filtered item set for one category code.
type Client struct {
	pages   PageFetcher
	perPage int
	logger  logger.Logger
}

// NewClient builds the catalog client: HTTP transport with rate limiting and
// optional page cache, wrapped in a retrying decorator. pageCache may be nil.
func NewClient(cfg config.HealthKartConfig, log logger.Logger, pageCache cache.Cache) *Client {
	base := &httpPageFetcher{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:   &http.Client{Timeout: config.GetDuration(cfg.RequestTimeout)},
		logger:       log,
		cache:        pageCache,
		cacheTTL:     time.Duration(cfg.CacheTTL) * time.Second,
		requestDelay: config.GetDuration(cfg.RequestDelay),
	}

	retrying := &retryingPageFetcher{
		next:    base,
		retrier: retry.New(log),
		opts: retry.Options{
			MaxRetries:        cfg.MaxRetries,
			Delay:             config.GetDuration(cfg.RetryDelay),
			BackoffMultiplier: 2,
		},
	}

	return &Client{
		pages:   retrying,
		perPage: cfg.PageSize,
		logger:  log,
	}
}

// NewClientWithFetcher wires a custom page fetcher (used in tests).
func NewClientWithFetcher(pages PageFetcher, perPage int, log logger.Logger) *Client {
	return &Client{pages: pages, perPage: perPage, logger: log}
}

// FetchCategoryPage fetches a single page through the retrying transport.
func (c *Client) FetchCategoryPage(ctx context.Context, categoryCode string, pageNo, perPage int) (*CategoryPageResponse, error) {
	return c.pages.FetchCategoryPage(ctx, categoryCode, pageNo, perPage)
}

// FetchAllCategoryProducts pages through the category listing until the
// accumulated item count reaches the server-reported total, or a page comes
// back empty (defensive stop against disagreeing totals).
func (c *Client) FetchAllCategoryProducts(ctx context.Context, categoryCode string) ([]RawCatalogItem, error) {
	var all []RawCatalogItem

	first, err := c.pages.FetchCategoryPage(ctx, categoryCode, 1, c.perPage)
	if err != nil {
		return nil, err
	}
	all = append(all, first.Items...)

	perPage := first.PerPage
	if perPage <= 0 {
		perPage = c.perPage
	}
	totalPages := (first.TotalCount + perPage - 1) / perPage

	for pageNo := 2; pageNo <= totalPages && len(all) < first.TotalCount; pageNo++ {
		page, err := c.pages.FetchCategoryPage(ctx, categoryCode, pageNo, c.perPage)
		if err != nil {
			return nil, err
		}
		if len(page.Items) == 0 {
			c.logger.Warn("catalog returned an empty page before the reported total", map[string]interface{}{
				"category":   categoryCode,
				"page":       pageNo,
				"fetched":    len(all),
				"totalCount": first.TotalCount,
			})
			break
		}
		all = append(all, page.Items...)
	}

	c.logger.Info("category fetch complete", map[string]interface{}{
		"category":   categoryCode,
		"items":      len(all),
		"totalCount": first.TotalCount,
	})

	return all, nil
}

// FetchFilteredProducts fetches every page of the category and applies the
// raw-level criteria in memory. All active predicates must pass.
func (c *Client) FetchFilteredProducts(ctx context.Context, categoryCode string, criteria domain.FilterCriteria) ([]RawCatalogItem, error) {
	items, err := c.FetchAllCategoryProducts(ctx, categoryCode)
	if err != nil {
		return nil, err
	}

	filtered := make([]RawCatalogItem, 0, len(items))
	for _, item := range items {
		if matchesRawCriteria(item, criteria) {
			filtered = append(filtered, item)
		}
	}
	return filtered, nil
}

func matchesRawCriteria(item RawCatalogItem, criteria domain.FilterCriteria) bool {
	if item.Discount < criteria.MinDiscount {
		return false
	}
	if criteria.MaxPrice != nil && item.OfferPrice > *criteria.MaxPrice {
		return false
	}
	if criteria.MinRating != nil && item.Rating < *criteria.MinRating {
		return false
	}
	if criteria.InStockOnly && !item.InStock {
		return false
	}
	if criteria.MinReviews != nil && item.ReviewCount < *criteria.MinReviews {
		return false
	}
	if len(criteria.Brands) > 0 && !equalsAnyFold(item.BrandName, criteria.Brands) {
		return false
	}
	if len(criteria.Categories) > 0 && !containsAnyFold(item.CategoryName, criteria.Categories) {
		return false
	}
	if len(criteria.Flavors) > 0 {
		flavor, _ := item.FindAttribute(attrFlavor)
		if !containsAnyFold(flavor, criteria.Flavors) {
			return false
		}
	}
	return true
}

// equalsAnyFold is an exact case-insensitive match, not a substring match.
func equalsAnyFold(s string, candidates []string) bool {
	for _, c := range candidates {
		if strings.EqualFold(s, c) {
			return true
		}
	}
	return false
}

func containsAnyFold(s string, candidates []string) bool {
	lower := strings.ToLower(s)
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(c)) {
			return true
		}
	}
	return false
}
