package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/BradenHooton/eduif/internal/auth"
	"github.com/BradenHooton/eduif/internal/models"
	"github.com/BradenHooton/eduif/internal/services"
	pkghttp "github.com/BradenHooton/eduif/pkg/http"
)

// AdminServiceInterface defines the dashboard and admin read operations
type AdminServiceInterface interface {
	Dashboard(ctx context.Context, session *models.Session, ip string) (*services.DashboardView, error)
	ListUsers(ctx context.Context, session *models.Session, ip string) ([]services.UserSummary, error)
	ActivityLog(ctx context.Context, session *models.Session, limit int, ip string) ([]*models.AuditRecord, error)
}

// AccountUnlocker returns a locked account to service
type AccountUnlocker interface {
	UnlockAccount(ctx context.Context, actor *models.Session, targetID int64, ip string) (*models.Account, error)
}

// AdminHandler handles the dashboard and the admin-only endpoints
type AdminHandler struct {
	service  AdminServiceInterface
	unlocker AccountUnlocker
	ipConfig *pkghttp.IPConfig
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(service AdminServiceInterface, unlocker AccountUnlocker, ipConfig *pkghttp.IPConfig) *AdminHandler {
	return &AdminHandler{
		service:  service,
		unlocker: unlocker,
		ipConfig: ipConfig,
	}
}

// DashboardResponse wraps the caller's dashboard view
type DashboardResponse struct {
	Success bool `json:"success"`
	*services.DashboardView
}

// UsersResponse lists accounts for admins
type UsersResponse struct {
	Success bool                   `json:"success"`
	Users   []services.UserSummary `json:"users"`
}

// ActivityLogResponse lists the newest audit records, oldest first
type ActivityLogResponse struct {
	Success bool                  `json:"success"`
	Logs    []*models.AuditRecord `json:"logs"`
}

// Dashboard handles GET /api/dashboard
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Dashboard(r.Context(), auth.SessionFromContext(r.Context()), pkghttp.ExtractClientIP(r, h.ipConfig))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, DashboardResponse{Success: true, DashboardView: view})
}

// ListUsers handles GET /api/users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context(), auth.SessionFromContext(r.Context()), pkghttp.ExtractClientIP(r, h.ipConfig))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, UsersResponse{Success: true, Users: users})
}

// ActivityLog handles GET /api/activity-log
// Accepts optional query param ?limit=N (1–50, default 50).
func (h *AdminHandler) ActivityLog(w http.ResponseWriter, r *http.Request) {
	limit := services.MaxActivityLogLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil {
			pkghttp.WriteBadRequest(w, "limit must be a number")
			return
		}
		limit = services.ClampActivityLimit(n)
	}

	logs, err := h.service.ActivityLog(r.Context(), auth.SessionFromContext(r.Context()), limit, pkghttp.ExtractClientIP(r, h.ipConfig))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, ActivityLogResponse{Success: true, Logs: logs})
}

// UnlockUser handles POST /api/unlock-user/{id}
func (h *AdminHandler) UnlockUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		pkghttp.WriteBadRequest(w, "Invalid user id")
		return
	}

	_, err = h.unlocker.UnlockAccount(r.Context(), auth.SessionFromContext(r.Context()), id, pkghttp.ExtractClientIP(r, h.ipConfig))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "User not found")
			return
		}
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteSuccess(w, "User unlocked")
}

// writeServiceError maps service sentinels to responses
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrUnauthenticated), errors.Is(err, models.ErrForbidden):
		auth.WriteAccessError(w, err)
	case errors.Is(err, models.ErrDataUnavailable), errors.Is(err, models.ErrDecryption):
		pkghttp.WriteNotFound(w, "No data found")
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, "Invalid request")
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}
