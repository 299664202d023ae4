// Package server exposes the alert pipeline over HTTP: a manual trigger
// endpoint, a health endpoint and Prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"dealwatch/internal/alert"
	"dealwatch/internal/common/config"
	"dealwatch/internal/common/errors"
	"dealwatch/internal/common/logger"
	"dealwatch/internal/common/validation"
	"dealwatch/internal/domain"
)

// AlertRunner is the orchestration surface the handlers depend on.
type AlertRunner interface {
	ExecuteAll(ctx context.Context) *alert.ExecutionResult
	ExecuteWithCriteria(ctx context.Context, category string, criteria domain.FilterCriteria) (*alert.ExecutionResult, error)
}

type Handler struct {
	runner       AlertRunner
	appCfg       config.AppConfig
	alertsCfg    config.AlertsConfig
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(runner AlertRunner, appCfg config.AppConfig, alertsCfg config.AlertsConfig, log logger.Logger) *Handler {
	return &Handler{
		runner:       runner,
		appCfg:       appCfg,
		alertsCfg:    alertsCfg,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}
}

// triggerResponse is the success body for a manual run.
type triggerResponse struct {
	Success         bool        `json:"success"`
	Timestamp       string      `json:"timestamp"`
	ExecutionTimeMs int64       `json:"executionTimeMs"`
	Data            triggerData `json:"data"`
}

type triggerData struct {
	TotalProductsFetched int                 `json:"totalProductsFetched"`
	QualifyingDeals      int                 `json:"qualifyingDeals"`
	TelegramSent         bool                `json:"telegramSent"`
	Deals                []alert.DealSummary `json:"deals"`
	Errors               []string            `json:"errors,omitempty"`
}

// RunAlerts handles POST /api/alerts/run. An empty body runs every configured
// category with the configured criteria; a JSON body may narrow the run to
// one category and override criteria fields.
func (h *Handler) RunAlerts(w http.ResponseWriter, r *http.Request) {
	var payload map[string]interface{}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			h.writeBadRequest(w, "request body is not valid JSON")
			return
		}

		result, err := validation.ValidateTriggerRequest(payload)
		if err != nil {
			h.errorHandler.WriteHTTPError(w, err)
			return
		}
		if !result.Valid {
			msgs := make([]string, 0, len(result.Errors))
			for _, e := range result.Errors {
				msgs = append(msgs, fmt.Sprintf("%s: %s", e.Field, e.Message))
			}
			h.writeBadRequest(w, strings.Join(msgs, "; "))
			return
		}
	}

	var run *alert.ExecutionResult
	if category, ok := payload["category"].(string); ok && category != "" {
		criteria := h.criteriaWithOverrides(payload)
		result, err := h.runner.ExecuteWithCriteria(r.Context(), category, criteria)
		if err != nil {
			h.errorHandler.WriteHTTPError(w, err)
			return
		}
		run = result
	} else {
		run = h.runner.ExecuteAll(r.Context())
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(triggerResponse{
		Success:         true,
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
		ExecutionTimeMs: run.ExecutionTimeMs,
		Data: triggerData{
			TotalProductsFetched: run.TotalProductsFetched,
			QualifyingDeals:      run.QualifyingDeals,
			TelegramSent:         run.TelegramSent,
			Deals:                run.Deals,
			Errors:               run.Errors,
		},
	})
}

// Health handles GET /health with static service identity.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"service":     h.appCfg.Name,
		"version":     h.appCfg.Version,
		"environment": h.appCfg.Environment,
		"status":      "ok",
	})
}

// criteriaWithOverrides starts from the configured criteria and applies any
// fields present in the validated payload.
func (h *Handler) criteriaWithOverrides(payload map[string]interface{}) domain.FilterCriteria {
	criteria := CriteriaFromConfig(h.alertsCfg)

	if v, ok := payload["minDiscount"].(float64); ok {
		criteria.MinDiscount = v
	}
	if v, ok := payload["maxPrice"].(float64); ok {
		criteria.MaxPrice = domain.Float64Ptr(v)
	}
	if v, ok := payload["minRating"].(float64); ok {
		criteria.MinRating = domain.Float64Ptr(v)
	}
	if v, ok := payload["minReviews"].(float64); ok {
		criteria.MinReviews = domain.IntPtr(int(v))
	}
	if v, ok := payload["inStockOnly"].(bool); ok {
		criteria.InStockOnly = v
	}
	if v, ok := payload["brands"].([]interface{}); ok {
		criteria.Brands = toStrings(v)
	}
	if v, ok := payload["flavors"].([]interface{}); ok {
		criteria.Flavors = toStrings(v)
	}

	return criteria
}

func toStrings(vals []interface{}) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func (h *Handler) writeBadRequest(w http.ResponseWriter, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(errors.ErrorResponse{
		Success:    false,
		Error:      details,
		Code:       "INVALID_REQUEST",
		StatusCode: http.StatusBadRequest,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	})
}

// CriteriaFromConfig builds the domain criteria from the alerts config block.
func CriteriaFromConfig(cfg config.AlertsConfig) domain.FilterCriteria {
	criteria := domain.FilterCriteria{
		MinDiscount: cfg.MinDiscount,
		InStockOnly: cfg.InStockOnly,
		Brands:      cfg.Brands,
		Flavors:     cfg.Flavors,
	}
	if cfg.MaxPrice > 0 {
		criteria.MaxPrice = domain.Float64Ptr(cfg.MaxPrice)
	}
	if cfg.MinRating > 0 {
		criteria.MinRating = domain.Float64Ptr(cfg.MinRating)
	}
	if cfg.MinReviews > 0 {
		criteria.MinReviews = domain.IntPtr(cfg.MinReviews)
	}
	return criteria
}
