// Package alert sequences the pipeline: fetch, transform, filter, notify.
package alert

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"dealwatch/internal/common/logger"
	"dealwatch/internal/common/metrics"
	"dealwatch/internal/common/observability"
	"dealwatch/internal/domain"
	"dealwatch/internal/healthkart"
)

// CatalogFetcher is the catalog surface the use case depends on.
type CatalogFetcher interface {
	FetchAllCategoryProducts(ctx context.Context, categoryCode string) ([]healthkart.RawCatalogItem, error)
}

// DealNotifier delivers one batched alert for the qualifying products.
type DealNotifier interface {
	SendDealAlerts(ctx context.Context, products []domain.Product, chatID string) error
}

// UseCase runs the linear alert pipeline for one or many categories.
type UseCase struct {
	catalog    CatalogFetcher
	transform  *healthkart.TransformService
	notifier   DealNotifier
	obs        *observability.Observability
	logger     logger.Logger
	chatID     string
	categories []string
	criteria   domain.FilterCriteria
	maxDeals   int
}

type UseCaseOptions struct {
	Catalog    CatalogFetcher
	Transform  *healthkart.TransformService
	Notifier   DealNotifier
	Obs        *observability.Observability
	Logger     logger.Logger
	ChatID     string
	Categories []string
	Criteria   domain.FilterCriteria
	MaxDeals   int
}

func NewUseCase(opts UseCaseOptions) *UseCase {
	if opts.MaxDeals <= 0 {
		opts.MaxDeals = 5
	}
	return &UseCase{
		catalog:    opts.Catalog,
		transform:  opts.Transform,
		notifier:   opts.Notifier,
		obs:        opts.Obs,
		logger:     opts.Logger,
		chatID:     opts.ChatID,
		categories: opts.Categories,
		criteria:   opts.Criteria,
		maxDeals:   opts.MaxDeals,
	}
}

// Execute runs one category through fetch, transform, filter and notify.
// Zero qualifying deals is not an error: the notify stage is skipped and the
// run reports TelegramSent=false. A notify failure still returns the result
// so callers see the fetch and filter counts.
func (u *UseCase) Execute(ctx context.Context, category string) (*ExecutionResult, error) {
	return u.execute(ctx, category, u.criteria)
}

// ExecuteWithCriteria runs one category with per-run criteria overrides.
func (u *UseCase) ExecuteWithCriteria(ctx context.Context, category string, criteria domain.FilterCriteria) (*ExecutionResult, error) {
	return u.execute(ctx, category, criteria)
}

func (u *UseCase) execute(ctx context.Context, category string, criteria domain.FilterCriteria) (*ExecutionResult, error) {
	start := time.Now()
	result := &ExecutionResult{
		ExecutionID: uuid.New().String(),
		Category:    category,
	}

	log := u.logger.WithFields(map[string]interface{}{
		"executionId": result.ExecutionID,
		"category":    category,
	})
	log.Info("alert run starting", nil)

	raws, err := u.catalog.FetchAllCategoryProducts(ctx, category)
	if err != nil {
		u.recordRun(ctx, start, "fetch_failed")
		return nil, err
	}
	result.TotalProductsFetched = len(raws)

	products := u.transform.ToProducts(raws)
	if skipped := len(raws) - len(products); skipped > 0 {
		metrics.ItemsSkippedTotal.WithLabelValues(category).Add(float64(skipped))
	}

	deals := domain.FilterProducts(products, criteria)
	sort.SliceStable(deals, func(i, j int) bool {
		return deals[i].DiscountPercentage > deals[j].DiscountPercentage
	})
	result.QualifyingDeals = len(deals)
	result.Deals = summarize(deals, u.maxDeals)
	metrics.QualifyingDeals.WithLabelValues(category).Set(float64(len(deals)))

	if len(deals) == 0 {
		result.ExecutionTimeMs = time.Since(start).Milliseconds()
		u.recordRun(ctx, start, "no_deals")
		log.Info("alert run complete, no qualifying deals", map[string]interface{}{
			"fetched": result.TotalProductsFetched,
		})
		return result, nil
	}

	if err := u.notifier.SendDealAlerts(ctx, deals, u.chatID); err != nil {
		result.ExecutionTimeMs = time.Since(start).Milliseconds()
		u.recordRun(ctx, start, "notify_failed")
		return result, err
	}
	result.TelegramSent = true
	result.ExecutionTimeMs = time.Since(start).Milliseconds()

	u.recordRun(ctx, start, "success")
	log.Info("alert run complete", map[string]interface{}{
		"fetched":      result.TotalProductsFetched,
		"deals":        result.QualifyingDeals,
		"telegramSent": result.TelegramSent,
	})

	return result, nil
}

// ExecuteAll monitors every configured category concurrently and merges the
// outcomes: successes contribute counts and deals, failures contribute to
// the error list, neither aborts the others.
func (u *UseCase) ExecuteAll(ctx context.Context) *ExecutionResult {
	start := time.Now()
	merged := &ExecutionResult{
		ExecutionID: uuid.New().String(),
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)

	for _, category := range u.categories {
		wg.Add(1)
		go func(category string) {
			defer wg.Done()

			result, err := u.Execute(ctx, category)

			mu.Lock()
			defer mu.Unlock()
			if result != nil {
				merged.TotalProductsFetched += result.TotalProductsFetched
				merged.QualifyingDeals += result.QualifyingDeals
				merged.TelegramSent = merged.TelegramSent || result.TelegramSent
				merged.Deals = append(merged.Deals, result.Deals...)
			}
			if err != nil {
				merged.Errors = append(merged.Errors, category+": "+err.Error())
			}
		}(category)
	}
	wg.Wait()

	sort.SliceStable(merged.Deals, func(i, j int) bool {
		return merged.Deals[i].DiscountPercentage > merged.Deals[j].DiscountPercentage
	})
	if len(merged.Deals) > u.maxDeals {
		merged.Deals = merged.Deals[:u.maxDeals]
	}
	merged.ExecutionTimeMs = time.Since(start).Milliseconds()

	return merged
}

func (u *UseCase) recordRun(ctx context.Context, start time.Time, outcome string) {
	metrics.AlertRunsTotal.WithLabelValues("pipeline", outcome).Inc()
	metrics.AlertRunDuration.WithLabelValues("pipeline").Observe(time.Since(start).Seconds())
	if u.obs != nil {
		u.obs.RecordRun(ctx, outcome)
		u.obs.RecordRunDuration(ctx, time.Since(start), outcome)
	}
}
