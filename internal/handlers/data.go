package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/BradenHooton/eduif/internal/auth"
	"github.com/BradenHooton/eduif/internal/models"
	pkghttp "github.com/BradenHooton/eduif/pkg/http"
)

// maxPayloadBytes bounds a protected data upload
const maxPayloadBytes = 1 << 20

// ProtectedDataServiceInterface reads and replaces the sealed payload
type ProtectedDataServiceInterface interface {
	Read(ctx context.Context, session *models.Session, ip string) (json.RawMessage, error)
	Store(ctx context.Context, session *models.Session, payload json.RawMessage, ip string) error
}

// DataHandler serves the protected student payload
type DataHandler struct {
	service  ProtectedDataServiceInterface
	ipConfig *pkghttp.IPConfig
}

func NewDataHandler(service ProtectedDataServiceInterface, ipConfig *pkghttp.IPConfig) *DataHandler {
	return &DataHandler{service: service, ipConfig: ipConfig}
}

// DataResponse carries the decrypted payload
type DataResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

// Read handles GET /api/student-data
func (h *DataHandler) Read(w http.ResponseWriter, r *http.Request) {
	payload, err := h.service.Read(r.Context(), auth.SessionFromContext(r.Context()), pkghttp.ExtractClientIP(r, h.ipConfig))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, DataResponse{Success: true, Data: payload})
}

// Store handles PUT /api/student-data
func (h *DataHandler) Store(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	if err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if !json.Valid(body) {
		pkghttp.WriteBadRequest(w, "Request body must be JSON")
		return
	}

	if err := h.service.Store(r.Context(), auth.SessionFromContext(r.Context()), body, pkghttp.ExtractClientIP(r, h.ipConfig)); err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteSuccess(w, "Student data updated")
}
