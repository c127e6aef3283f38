package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/BradenHooton/eduif/internal/auth"
	"github.com/BradenHooton/eduif/internal/models"
	"github.com/BradenHooton/eduif/internal/services"
	pkghttp "github.com/BradenHooton/eduif/pkg/http"
)

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	Login(ctx context.Context, username, password, ip string) (*services.LoginResult, error)
	Logout(ctx context.Context, session *models.Session, ip string)
}

// AuthHandler handles login and logout
type AuthHandler struct {
	service      AuthServiceInterface
	ipConfig     *pkghttp.IPConfig
	cookieConfig auth.CookieConfig
	sessionTTL   time.Duration
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthServiceInterface, ipConfig *pkghttp.IPConfig, cookieConfig auth.CookieConfig, sessionTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		service:      service,
		ipConfig:     ipConfig,
		cookieConfig: cookieConfig,
		sessionTTL:   sessionTTL,
	}
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=256"`
}

// LoginResponse is returned on a successful login. Token repeats the cookie
// value for clients that send Authorization: Bearer.
type LoginResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Role    models.Role `json:"role"`
	Token   string      `json:"token"`
}

// LoginFailureResponse is returned for rejected credentials and locked accounts
type LoginFailureResponse struct {
	Success           bool   `json:"success"`
	Error             string `json:"error"`
	Message           string `json:"message"`
	RemainingAttempts *int   `json:"remaining_attempts,omitempty"`
}

// Login handles POST /api/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		pkghttp.WriteBadRequest(w, "Username and password required")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	ip := pkghttp.ExtractClientIP(r, h.ipConfig)

	result, err := h.service.Login(r.Context(), req.Username, req.Password, ip)
	if err != nil {
		var loginErr *services.LoginError
		switch {
		case errors.As(err, &loginErr) && errors.Is(err, models.ErrAccountLocked):
			pkghttp.WriteJSON(w, http.StatusForbidden, LoginFailureResponse{
				Error:   "account_locked",
				Message: loginErr.Message,
			})
		case errors.As(err, &loginErr):
			resp := LoginFailureResponse{
				Error:   "invalid_credentials",
				Message: loginErr.Message,
			}
			if loginErr.RemainingAttempts > 0 {
				remaining := loginErr.RemainingAttempts
				resp.RemainingAttempts = &remaining
			}
			pkghttp.WriteJSON(w, http.StatusUnauthorized, resp)
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	auth.SetSessionCookie(w, result.Token, h.sessionTTL, h.cookieConfig)
	pkghttp.WriteJSON(w, http.StatusOK, LoginResponse{
		Success: true,
		Message: result.Message,
		Role:    result.Role,
		Token:   result.Token,
	})
}

// Logout handles POST /api/logout. It succeeds with or without a session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.service.Logout(r.Context(), auth.SessionFromContext(r.Context()), pkghttp.ExtractClientIP(r, h.ipConfig))

	auth.ClearSessionCookie(w, h.cookieConfig)
	pkghttp.WriteJSON(w, http.StatusOK, pkghttp.Result{Success: true})
}
