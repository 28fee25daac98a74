package handler

import (
	"net/http"

	"github.com/mrpremium/go-storefront-service/internal/auth"
)

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleLogin 管理员登录
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	session, err := h.auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, session)
}

// handleLogout 退出登录，令牌立即失效
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	token, err := auth.TokenFromHeader(r.Header.Get("Authorization"))
	if err != nil {
		h.writeServiceError(w, r, auth.ErrUnauthenticated)
		return
	}
	if err := h.auth.SignOut(r.Context(), token); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleMe 当前登录用户
func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.writeServiceError(w, r, auth.ErrUnauthenticated)
		return
	}
	h.writeJSON(w, http.StatusOK, user)
}
