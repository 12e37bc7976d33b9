package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/civdash/dashboard-server/internal/service"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const (
	defaultCacheDuration  = 1 * time.Minute
	defaultRequestTimeout = 30 * time.Second
)

const (
	cacheKeyDashboardMetrics = "api:dashboard_metrics"
	cacheKeyCategoryCounts   = "api:category_breakdown"
)

type Handlers struct {
	dashboard DashboardService
	prefs     PreferencesService
	cache     *responseCache
	logger    *zap.Logger
}

// NewHandlers initializes the HTTP handlers.
func NewHandlers(dashboard DashboardService, prefs PreferencesService, cache Cacher, logger *zap.Logger, ttl time.Duration) *Handlers {
	if dashboard == nil {
		panic("nil DashboardService provided to NewHandlers")
	}
	if ttl <= 0 {
		ttl = defaultCacheDuration
	}
	logger = logger.Named("api-handler")
	return &Handlers{
		dashboard: dashboard,
		prefs:     prefs,
		cache:     newResponseCache(cache, ttl, logger),
		logger:    logger,
	}
}

// Routes registers all dashboard endpoints on the given router.
func (h *Handlers) Routes(r *mux.Router) {
	r.HandleFunc("/dashboard/metrics", h.GetDashboardMetrics).Methods(http.MethodGet)
	r.HandleFunc("/dashboard/health", h.GetDashboardHealth).Methods(http.MethodGet)
	r.HandleFunc("/dashboard/categories", h.GetCategoryBreakdown).Methods(http.MethodGet)
	r.HandleFunc("/preferences/refresh-interval", h.GetRefreshInterval).Methods(http.MethodGet)
	r.HandleFunc("/preferences/refresh-interval", h.PutRefreshInterval).Methods(http.MethodPut)
}

// MetricsResponse is the dashboard metrics payload. Degraded is set when the
// metrics are the neutral fallback after retry exhaustion.
type MetricsResponse struct {
	Metrics      service.MetricsResult `json:"metrics"`
	HealthStatus service.HealthStatus  `json:"health_status"`
	CountText    string                `json:"count_change_text"`
	BudgetText   string                `json:"budget_change_text"`
	ActiveText   string                `json:"active_change_text"`
	Degraded     bool                  `json:"degraded"`
}

func newMetricsResponse(m service.MetricsResult, degraded bool) MetricsResponse {
	return MetricsResponse{
		Metrics:      m,
		HealthStatus: service.HealthStatusFor(m.HealthScore),
		CountText:    m.CountChange.Text(),
		BudgetText:   m.BudgetChange.Text(),
		ActiveText:   m.ActiveChange.Text(),
		Degraded:     degraded,
	}
}

type HealthResponse struct {
	HealthScore  float64              `json:"health_score"`
	HealthStatus service.HealthStatus `json:"health_status"`
}

type CategoryBreakdownResponse struct {
	Categories []service.CategoryBreakdownEntry `json:"categories"`
}

type RefreshIntervalPayload struct {
	IntervalSeconds int `json:"interval_seconds"`
}

func (h *Handlers) GetDashboardMetrics(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), defaultRequestTimeout)
	defer cancel()

	metrics, err := cachedFetch(ctx, h.cache, cacheKeyDashboardMetrics, func(fetchCtx context.Context) (service.MetricsResult, error) {
		return h.dashboard.Refresh(fetchCtx)
	})
	if err != nil {
		if errors.Is(err, service.ErrMetricsUnavailable) {
			// Never block the dashboard on a dead data source: serve the
			// neutral fallback and flag it.
			h.logger.Warn("serving fallback metrics", zap.Error(err))
			h.writeJSON(w, http.StatusOK, newMetricsResponse(h.dashboard.Fallback(), true))
			return
		}
		h.handleError(ctx, w, "GetDashboardMetrics", err)
		return
	}

	h.writeJSON(w, http.StatusOK, newMetricsResponse(metrics, false))
}

func (h *Handlers) GetDashboardHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), defaultRequestTimeout)
	defer cancel()

	metrics, err := cachedFetch(ctx, h.cache, cacheKeyDashboardMetrics, func(fetchCtx context.Context) (service.MetricsResult, error) {
		return h.dashboard.Refresh(fetchCtx)
	})
	if err != nil {
		if errors.Is(err, service.ErrMetricsUnavailable) {
			fallback := h.dashboard.Fallback()
			h.writeJSON(w, http.StatusOK, HealthResponse{
				HealthScore:  fallback.HealthScore,
				HealthStatus: service.HealthStatusFor(fallback.HealthScore),
			})
			return
		}
		h.handleError(ctx, w, "GetDashboardHealth", err)
		return
	}

	h.writeJSON(w, http.StatusOK, HealthResponse{
		HealthScore:  metrics.HealthScore,
		HealthStatus: service.HealthStatusFor(metrics.HealthScore),
	})
}

func (h *Handlers) GetCategoryBreakdown(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), defaultRequestTimeout)
	defer cancel()

	categories, err := cachedFetch(ctx, h.cache, cacheKeyCategoryCounts, func(fetchCtx context.Context) ([]service.CategoryBreakdownEntry, error) {
		return h.dashboard.CategoryBreakdown(fetchCtx)
	})
	if err != nil {
		h.handleError(ctx, w, "GetCategoryBreakdown", err)
		return
	}

	h.writeJSON(w, http.StatusOK, CategoryBreakdownResponse{Categories: categories})
}

func (h *Handlers) GetRefreshInterval(w http.ResponseWriter, r *http.Request) {
	interval := h.prefs.GetRefreshInterval(r.Context())
	h.writeJSON(w, http.StatusOK, RefreshIntervalPayload{
		IntervalSeconds: int(interval / time.Second),
	})
}

func (h *Handlers) PutRefreshInterval(w http.ResponseWriter, r *http.Request) {
	var payload RefreshIntervalPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	interval := time.Duration(payload.IntervalSeconds) * time.Second
	if err := h.prefs.SetRefreshInterval(r.Context(), interval); err != nil {
		if errors.Is(err, service.ErrInvalidInterval) {
			h.writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		h.handleError(r.Context(), w, "PutRefreshInterval", err)
		return
	}

	h.writeJSON(w, http.StatusOK, RefreshIntervalPayload{IntervalSeconds: payload.IntervalSeconds})
}

func (h *Handlers) handleError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	if errors.Is(err, service.ErrCancelled) || ctx.Err() == context.Canceled {
		// Client went away; nothing useful to write and not an error condition.
		h.logger.Warn("request canceled", zap.String("op", op))
		return
	}
	if ctx.Err() == context.DeadlineExceeded {
		h.logger.Warn("request timeout", zap.String("op", op))
		h.writeError(w, http.StatusGatewayTimeout, "request timed out")
		return
	}

	switch {
	case errors.Is(err, service.ErrFetchFailure):
		h.logger.Error("fetch failure", zap.String("op", op), zap.Error(err))
		h.writeError(w, http.StatusServiceUnavailable, "enterprise data source unavailable")
	default:
		h.logger.Error("unexpected error", zap.String("op", op), zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, op+" failed")
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handlers) writeError(w http.ResponseWriter, code int, msg string) {
	h.writeJSON(w, code, errorResponse{Error: msg})
}

func (h *Handlers) writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}
