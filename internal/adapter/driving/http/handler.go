package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ericfisherdev/keyshelf/internal/application"
	"github.com/ericfisherdev/keyshelf/internal/domain/model"
	"github.com/ericfisherdev/keyshelf/internal/domain/port/driven"
)

const maxRequestBodyBytes = 1 << 20 // 1 MiB

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	credentials *application.CredentialService
	storage     string
	logger      *slog.Logger
}

// NewHandler creates a Handler. storage names the active store variant and is
// reported by the health endpoint.
func NewHandler(credentials *application.CredentialService, storage string, logger *slog.Logger) *Handler {
	return &Handler{
		credentials: credentials,
		storage:     storage,
		logger:      logger,
	}
}

// RouterConfig holds the optional parts of the HTTP surface.
type RouterConfig struct {
	// CORSOrigins lists allowed origins; "*" allows any.
	CORSOrigins []string
	// StaticDir, when set, is served as a single-page app at /.
	StaticDir string
}

// NewServeMux creates an http.Handler with all routes registered. Every
// /api/api-keys route sits behind the auth middleware; the whole mux is
// wrapped with recovery, CORS and logging middleware.
func NewServeMux(h *Handler, resolver driven.IdentityResolver, cfg RouterConfig, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	protected := func(fn http.HandlerFunc) http.Handler {
		return authMiddleware(resolver, logger, fn)
	}

	mux.Handle("GET /api/api-keys", protected(h.ListCredentials))
	mux.Handle("POST /api/api-keys", protected(h.CreateCredential))
	mux.Handle("GET /api/api-keys/{id}", protected(h.GetCredential))
	mux.Handle("PUT /api/api-keys/{id}", protected(h.UpdateCredential))
	mux.Handle("DELETE /api/api-keys/{id}", protected(h.DeleteCredential))
	mux.HandleFunc("GET /api/health", h.Health)

	if cfg.StaticDir != "" {
		mux.Handle("GET /", spaHandler(cfg.StaticDir))
	}

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = corsMiddleware(cfg.CORSOrigins, wrapped)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// ListCredentials returns the caller's API keys, most recently updated first.
func (h *Handler) ListCredentials(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	creds, err := h.credentials.List(r.Context(), id.UserID)
	if err != nil {
		h.logger.Error("failed to list credentials", "owner", id.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]CredentialResponse, 0, len(creds))
	for _, c := range creds {
		resp = append(resp, toCredentialResponse(c))
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetCredential returns one of the caller's API keys.
func (h *Handler) GetCredential(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	credID := r.PathValue("id")

	cred, err := h.credentials.Get(r.Context(), id.UserID, credID)
	if err != nil {
		h.writeStoreError(w, "get", credID, err)
		return
	}

	writeJSON(w, http.StatusOK, toCredentialResponse(cred))
}

// CreateCredential stores a new API key owned by the caller.
func (h *Handler) CreateCredential(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	req, ok := decodeCredentialRequest(w, r)
	if !ok {
		return
	}

	cred, err := h.credentials.Create(r.Context(), id.UserID, req.toInput())
	if err != nil {
		h.writeStoreError(w, "create", "", err)
		return
	}

	writeJSON(w, http.StatusCreated, toCredentialResponse(cred))
}

// UpdateCredential merges the request body over one of the caller's API keys.
func (h *Handler) UpdateCredential(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	credID := r.PathValue("id")

	req, ok := decodeCredentialRequest(w, r)
	if !ok {
		return
	}

	cred, err := h.credentials.Update(r.Context(), id.UserID, credID, req.toPatch())
	if err != nil {
		h.writeStoreError(w, "update", credID, err)
		return
	}

	writeJSON(w, http.StatusOK, toCredentialResponse(cred))
}

// DeleteCredential permanently removes one of the caller's API keys.
func (h *Handler) DeleteCredential(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	credID := r.PathValue("id")

	if err := h.credentials.Delete(r.Context(), id.UserID, credID); err != nil {
		h.writeStoreError(w, "delete", credID, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Storage: h.storage,
		Time:    time.Now().UTC().Format(time.RFC3339),
	})
}

// writeStoreError maps service errors to responses. Not-found covers rows of
// other owners too, so the response never reveals whether an id exists.
func (h *Handler) writeStoreError(w http.ResponseWriter, op, credID string, err error) {
	switch {
	case errors.Is(err, driven.ErrCredentialNotFound):
		writeError(w, http.StatusNotFound, "API key not found")
	case errors.Is(err, application.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("credential operation failed", "op", op, "id", credID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// requireIdentity returns the caller attached by authMiddleware, writing a 401
// when a handler is reached without one.
func requireIdentity(w http.ResponseWriter, r *http.Request) (model.Identity, bool) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "No token provided")
	}
	return id, ok
}

func decodeCredentialRequest(w http.ResponseWriter, r *http.Request) (CredentialRequest, bool) {
	var req CredentialRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return CredentialRequest{}, false
	}
	return req, true
}
