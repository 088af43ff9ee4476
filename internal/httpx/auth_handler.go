package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ariefcatur/go-storefront.git/internal/auth"
	"github.com/go-chi/chi/v5"
)

// LoginService is satisfied by *auth.Service.
type LoginService interface {
	Login(ctx context.Context, username, password string) (string, error)
}

type AuthHandler struct {
	Auth LoginService
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(r *chi.Mux) {
	r.Post("/api/login", h.login)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeFailure(w, http.StatusBadRequest, "username and password are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	token, err := h.Auth.Login(ctx, req.Username, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		writeFailure(w, http.StatusUnauthorized, "invalid username or password")
		return
	}
	if err != nil {
		writeFailure(w, http.StatusInternalServerError, "login failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "token": token})
}
