package api

import (
	"encoding/json"
	"net/http"

	"github.com/example/babyshop/internal/auth"
)

const adminCookie = "admin_token"

// AuthHandlers serves the admin login. There are no user accounts:
// a single password either opens the console or it doesn't.
type AuthHandlers struct {
	gate       *auth.Gate
	jwtService *auth.JWTService
}

func NewAuthHandlers(gate *auth.Gate, jwtService *auth.JWTService) *AuthHandlers {
	return &AuthHandlers{gate: gate, jwtService: jwtService}
}

func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if !h.gate.Check(req.Password) {
		respondError(w, "invalid password", http.StatusUnauthorized)
		return
	}

	token, expiresAt, err := h.jwtService.GenerateToken()
	if err != nil {
		respondError(w, "failed to create session", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     adminCookie,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	respondJSON(w, http.StatusOK, map[string]any{
		"token":      token,
		"expires_at": expiresAt,
	})
}

func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     adminCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	respondJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}
