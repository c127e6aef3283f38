package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/BradenHooton/eduif/internal/auth"
	"github.com/BradenHooton/eduif/internal/models"
	"github.com/BradenHooton/eduif/internal/services"
	pkghttp "github.com/BradenHooton/eduif/pkg/http"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithSessionContext attaches a session to the request as LoadSession would
func WithSessionContext(req *http.Request, username string, role models.Role) *http.Request {
	session := &models.Session{ID: "test-session", UserID: 1, Username: username, Role: role}
	return req.WithContext(auth.WithSession(req.Context(), session))
}

// WithURLParam sets a chi route parameter on the request
func WithURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target any) {
	t.Helper()
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"), "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) pkghttp.ErrorResponse {
	t.Helper()
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.False(t, resp.Success)
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
	return resp
}

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	LoginFunc  func(ctx context.Context, username, password, ip string) (*services.LoginResult, error)
	LogoutFunc func(ctx context.Context, session *models.Session, ip string)
}

func (m *MockAuthService) Login(ctx context.Context, username, password, ip string) (*services.LoginResult, error) {
	if m.LoginFunc == nil {
		return nil, &services.LoginError{Err: models.ErrInvalidCredential, Message: "Invalid credentials"}
	}
	return m.LoginFunc(ctx, username, password, ip)
}

func (m *MockAuthService) Logout(ctx context.Context, session *models.Session, ip string) {
	if m.LogoutFunc != nil {
		m.LogoutFunc(ctx, session, ip)
	}
}

// MockAdminService implements AdminServiceInterface and AccountUnlocker for testing
type MockAdminService struct {
	DashboardFunc     func(ctx context.Context, session *models.Session, ip string) (*services.DashboardView, error)
	ListUsersFunc     func(ctx context.Context, session *models.Session, ip string) ([]services.UserSummary, error)
	ActivityLogFunc   func(ctx context.Context, session *models.Session, limit int, ip string) ([]*models.AuditRecord, error)
	UnlockAccountFunc func(ctx context.Context, actor *models.Session, targetID int64, ip string) (*models.Account, error)
}

func (m *MockAdminService) Dashboard(ctx context.Context, session *models.Session, ip string) (*services.DashboardView, error) {
	if m.DashboardFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.DashboardFunc(ctx, session, ip)
}

func (m *MockAdminService) ListUsers(ctx context.Context, session *models.Session, ip string) ([]services.UserSummary, error) {
	if m.ListUsersFunc == nil {
		return []services.UserSummary{}, nil
	}
	return m.ListUsersFunc(ctx, session, ip)
}

func (m *MockAdminService) ActivityLog(ctx context.Context, session *models.Session, limit int, ip string) ([]*models.AuditRecord, error) {
	if m.ActivityLogFunc == nil {
		return []*models.AuditRecord{}, nil
	}
	return m.ActivityLogFunc(ctx, session, limit, ip)
}

func (m *MockAdminService) UnlockAccount(ctx context.Context, actor *models.Session, targetID int64, ip string) (*models.Account, error) {
	if m.UnlockAccountFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.UnlockAccountFunc(ctx, actor, targetID, ip)
}

// MockProtectedDataService implements ProtectedDataServiceInterface for testing
type MockProtectedDataService struct {
	ReadFunc  func(ctx context.Context, session *models.Session, ip string) (json.RawMessage, error)
	StoreFunc func(ctx context.Context, session *models.Session, payload json.RawMessage, ip string) error
}

func (m *MockProtectedDataService) Read(ctx context.Context, session *models.Session, ip string) (json.RawMessage, error) {
	if m.ReadFunc == nil {
		return nil, models.ErrDataUnavailable
	}
	return m.ReadFunc(ctx, session, ip)
}

func (m *MockProtectedDataService) Store(ctx context.Context, session *models.Session, payload json.RawMessage, ip string) error {
	if m.StoreFunc == nil {
		return nil
	}
	return m.StoreFunc(ctx, session, payload, ip)
}
