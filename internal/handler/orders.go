package handler

import (
	"net/http"

	"github.com/mrpremium/go-storefront-service/internal/orders"
)

// CheckoutResponse 下单响应
type CheckoutResponse struct {
	OrderID string `json:"orderId"`
}

// SetCompletedRequest 标记订单状态
type SetCompletedRequest struct {
	Completed *bool `json:"completed"`
}

// handleCheckout 结账下单
func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var form orders.CheckoutForm
	if !h.decodeJSON(w, r, &form) {
		return
	}

	id, err := h.orders.Checkout(r.Context(), form)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, CheckoutResponse{OrderID: id})
}

// handleReceipt 感谢页回执，订单不存在时返回默认内容
func (h *Handler) handleReceipt(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.orders.Receipt(r.Context(), r.PathValue("id")))
}

// handleAdminListOrders 后台订单列表
func (h *Handler) handleAdminListOrders(w http.ResponseWriter, r *http.Request) {
	list, err := h.orders.AdminList(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"orders": list})
}

// handleSetOrderCompleted 标记订单完成/未完成
func (h *Handler) handleSetOrderCompleted(w http.ResponseWriter, r *http.Request) {
	var req SetCompletedRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if req.Completed == nil {
		h.writeError(w, http.StatusBadRequest, "completed is required")
		return
	}

	o, err := h.orders.SetCompleted(r.Context(), r.PathValue("id"), *req.Completed)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.logAdmin(r, "order status changed", o.ID)
	h.writeJSON(w, http.StatusOK, o)
}

// handleDeleteOrder 删除订单
func (h *Handler) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.orders.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.logAdmin(r, "order deleted", id)
	w.WriteHeader(http.StatusNoContent)
}
