package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrpremium/go-storefront-service/internal/auth"
	"github.com/mrpremium/go-storefront-service/internal/catalog"
	"github.com/mrpremium/go-storefront-service/internal/config"
	"github.com/mrpremium/go-storefront-service/internal/orders"
	"github.com/mrpremium/go-storefront-service/internal/sanitizer"
	"github.com/mrpremium/go-storefront-service/internal/store"
	"github.com/mrpremium/go-storefront-service/internal/validation"
)

const maxBodySize int64 = 1 << 20

// Services 处理器依赖的服务
type Services struct {
	Store   store.Store
	Catalog *catalog.Service
	Orders  *orders.Service
	Auth    *auth.Service
}

// Handler HTTP 处理器
type Handler struct {
	store     store.Store
	catalog   *catalog.Service
	orders    *orders.Service
	auth      *auth.Service
	sanitizer *sanitizer.Sanitizer
	semaphore chan struct{}
	config    *config.Config
	logger    zerolog.Logger
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status      string `json:"status"`
	Concurrency int    `json:"concurrency"`
	Available   int    `json:"available"`
	Store       string `json:"store"`
}

// ErrorResponse 错误响应
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// New 创建处理器
func New(cfg *config.Config, svc Services, logger zerolog.Logger) *Handler {
	return &Handler{
		store:     svc.Store,
		catalog:   svc.Catalog,
		orders:    svc.Orders,
		auth:      svc.Auth,
		sanitizer: sanitizer.New(nil),
		semaphore: make(chan struct{}, cfg.MaxConcurrent),
		config:    cfg,
		logger:    logger.With().Str("component", "http").Logger(),
	}
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.handleHealth)

	mux.HandleFunc("GET /api/products", h.limit(h.handleListProducts))
	mux.HandleFunc("GET /api/products/{id}", h.limit(h.handleGetProduct))
	mux.HandleFunc("POST /api/checkout", h.limit(h.handleCheckout))
	mux.HandleFunc("GET /api/orders/{id}", h.limit(h.handleReceipt))

	mux.HandleFunc("POST /api/auth/login", h.limit(h.handleLogin))
	mux.HandleFunc("POST /api/auth/logout", h.limit(h.requireAuth(h.handleLogout)))
	mux.HandleFunc("GET /api/auth/me", h.limit(h.requireAuth(h.handleMe)))

	mux.HandleFunc("POST /api/admin/sanitize", h.limit(h.requireAuth(h.handleSanitizePreview)))
	mux.HandleFunc("GET /api/admin/products", h.limit(h.requireAuth(h.handleAdminListProducts)))
	mux.HandleFunc("POST /api/admin/products", h.limit(h.requireAuth(h.handleCreateProduct)))
	mux.HandleFunc("PUT /api/admin/products/{id}", h.limit(h.requireAuth(h.handleUpdateProduct)))
	mux.HandleFunc("DELETE /api/admin/products/{id}", h.limit(h.requireAuth(h.handleDeleteProduct)))
	mux.HandleFunc("GET /api/admin/orders", h.limit(h.requireAuth(h.handleAdminListOrders)))
	mux.HandleFunc("PATCH /api/admin/orders/{id}", h.limit(h.requireAuth(h.handleSetOrderCompleted)))
	mux.HandleFunc("DELETE /api/admin/orders/{id}", h.limit(h.requireAuth(h.handleDeleteOrder)))
}

// Routes 完整的 HTTP 处理链
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return requestLogging(h.logger)(mux)
}

// handleHealth 健康检查
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	available := h.config.MaxConcurrent - len(h.semaphore)
	resp := HealthResponse{
		Status:      "ok",
		Concurrency: h.config.MaxConcurrent,
		Available:   available,
		Store:       "ok",
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn().Err(err).Msg("store ping failed")
		resp.Status = "degraded"
		resp.Store = "unavailable"
		h.writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// decodeJSON 解析请求体
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Debug().Err(err).Msg("write response failed")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, ErrorResponse{Error: message})
}

// writeServiceError 把服务层错误映射成 HTTP 状态码
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		h.writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: "Validation failed", Fields: verr.Fields})
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, orders.ErrProductNotFound):
		h.writeError(w, http.StatusNotFound, "Product not found")
	case errors.Is(err, orders.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "Order not found")
	case errors.Is(err, auth.ErrInvalidCredentials):
		h.writeError(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, auth.ErrUnauthenticated):
		h.writeError(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, context.DeadlineExceeded):
		h.writeError(w, http.StatusGatewayTimeout, "Request timed out")
	default:
		h.logger.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
