package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sander-0/sanberbe59-sander/internal/auth"
	"github.com/sander-0/sanberbe59-sander/internal/orders"
)

type UserReader interface {
	FindByEmail(ctx context.Context, email string) (orders.User, error)
}

type AuthHandler struct {
	Users  UserReader
	Tokens *auth.Manager
	Log    *slog.Logger
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResp struct {
	Token string `json:"token"`
}

func (h *AuthHandler) Register(r chi.Router) {
	r.Post("/auth/login", h.login)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := decodeJSON(r, &req); err != nil || req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, response{Message: "email and password are required"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	u, err := h.Users.FindByEmail(ctx, req.Email)
	if err != nil || !auth.CheckPassword(u.PasswordHash, req.Password) {
		// pesan sengaja sama utk email tak dikenal maupun password salah
		writeJSON(w, http.StatusUnauthorized, response{Message: "Invalid email or password"})
		return
	}

	tok, err := h.Tokens.Sign(auth.Identity{UserID: u.ID})
	if err != nil {
		if h.Log != nil {
			h.Log.Error("sign token", "err", err)
		}
		writeJSON(w, http.StatusInternalServerError, response{Message: "Failed to login"})
		return
	}
	writeJSON(w, http.StatusOK, response{Message: "Login successful", Data: loginResp{Token: tok}})
}
