package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/keyshelf/internal/application"
	"github.com/ericfisherdev/keyshelf/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// CredentialResponse is the JSON representation of a stored API key.
// Tags must match the wire names in model.FieldMappings.
type CredentialResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Key         string `json:"key"`
	BaseURL     string `json:"baseUrl"`
	Model       string `json:"model"`
	Description string `json:"description"`
	Category    string `json:"category"`
	IsActive    bool   `json:"isActive"`
	OwnerID     string `json:"ownerId"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

// CredentialRequest is the JSON body for create and update. Omitted fields are
// nil; on update they keep their stored value.
type CredentialRequest struct {
	Name        *string `json:"name"`
	Key         *string `json:"key"`
	BaseURL     *string `json:"baseUrl"`
	Model       *string `json:"model"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	IsActive    *bool   `json:"isActive"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
	Time    string `json:"time"`
}

// toCredentialResponse converts a domain Credential to its JSON representation.
func toCredentialResponse(c model.Credential) CredentialResponse {
	return CredentialResponse{
		ID:          c.ID,
		Name:        c.Name,
		Key:         c.SecretValue,
		BaseURL:     c.BaseURL,
		Model:       c.Model,
		Description: c.Description,
		Category:    c.Category,
		IsActive:    c.IsActive,
		OwnerID:     c.OwnerID,
		CreatedAt:   c.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:   c.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// toInput converts a create request body to service input.
func (req CredentialRequest) toInput() application.CredentialInput {
	return application.CredentialInput{
		Name:        deref(req.Name),
		SecretValue: deref(req.Key),
		BaseURL:     deref(req.BaseURL),
		Model:       deref(req.Model),
		Description: deref(req.Description),
		Category:    deref(req.Category),
		IsActive:    req.IsActive,
	}
}

// toPatch converts an update request body to a domain patch.
func (req CredentialRequest) toPatch() model.CredentialPatch {
	return model.CredentialPatch{
		Name:        req.Name,
		SecretValue: req.Key,
		BaseURL:     req.BaseURL,
		Model:       req.Model,
		Description: req.Description,
		Category:    req.Category,
		IsActive:    req.IsActive,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
