package handler

import (
	"net/http"

	"github.com/mrpremium/go-storefront-service/internal/auth"
	"github.com/mrpremium/go-storefront-service/internal/catalog"
)

// SanitizeRequest 描述预览请求
type SanitizeRequest struct {
	Description string `json:"description"`
}

// SanitizeResponse 描述预览响应
type SanitizeResponse struct {
	HTML string `json:"html"`
}

// handleListProducts 前台商品列表
func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	params := catalog.ListParams{
		Type:   r.URL.Query().Get("type"),
		Search: r.URL.Query().Get("q"),
	}

	cards, err := h.catalog.List(r.Context(), params)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"products": cards})
}

// handleGetProduct 商品详情
func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	detail, err := h.catalog.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, detail)
}

// handleSanitizePreview 后台编辑描述时预览净化结果
func (h *Handler) handleSanitizePreview(w http.ResponseWriter, r *http.Request) {
	var req SanitizeRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	h.writeJSON(w, http.StatusOK, SanitizeResponse{HTML: h.sanitizer.Sanitize(req.Description)})
}

// handleAdminListProducts 后台商品列表
func (h *Handler) handleAdminListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.AdminList(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"products": products})
}

// handleCreateProduct 新增商品
func (h *Handler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var in catalog.Input
	if !h.decodeJSON(w, r, &in) {
		return
	}

	p, err := h.catalog.Create(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.logAdmin(r, "product created", p.ID)
	h.writeJSON(w, http.StatusCreated, p)
}

// handleUpdateProduct 编辑商品
func (h *Handler) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var in catalog.Input
	if !h.decodeJSON(w, r, &in) {
		return
	}

	p, err := h.catalog.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.logAdmin(r, "product updated", p.ID)
	h.writeJSON(w, http.StatusOK, p)
}

// handleDeleteProduct 删除商品
func (h *Handler) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.catalog.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.logAdmin(r, "product deleted", id)
	w.WriteHeader(http.StatusNoContent)
}

// logAdmin 记录后台操作人
func (h *Handler) logAdmin(r *http.Request, action, id string) {
	event := h.logger.Info().Str("id", id)
	if user, ok := auth.UserFromContext(r.Context()); ok {
		event = event.Str("admin", user.Email)
	}
	event.Msg(action)
}
