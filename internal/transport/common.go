// Package transport adapts the service operations to HTTP: request
// decoding, the response envelope, and caller identification.
package transport

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	api "github.com/neocertify/neocertify/internal/api/v1"
)

// OrgIDHeader carries the authenticated caller's organization id. The
// authentication layer in front of the service resolves credentials to
// this header; the service trusts it.
const OrgIDHeader = "X-Org-ID"

const maxRequestBody = 1 << 20

type envelope struct {
	Success bool           `json:"success"`
	Data    any            `json:"data,omitempty"`
	Error   *envelopeError `json:"error,omitempty"`
}

type envelopeError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteResponse writes the uniform response envelope. Successful statuses
// wrap data; failures carry the machine-readable reason code.
func WriteResponse(w http.ResponseWriter, status api.Status, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(int(status.Code))

	var body envelope
	if status.Status == "Success" {
		body = envelope{Success: true, Data: data}
	} else {
		body = envelope{Success: false, Error: &envelopeError{
			Code:    status.Reason,
			Message: status.Message,
		}}
	}
	_ = json.NewEncoder(w).Encode(body)
}

func decodeBody(w http.ResponseWriter, r *http.Request, into any) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		WriteResponse(w, api.StatusBadRequest(api.ReasonValidationError, "failed to read request body"), nil)
		return false
	}
	if err := json.Unmarshal(body, into); err != nil {
		WriteResponse(w, api.StatusBadRequest(api.ReasonValidationError, "invalid JSON body"), nil)
		return false
	}
	return true
}

// orgID extracts the caller's organization id. Requests without it never
// reach the service operations.
func orgID(r *http.Request) (uuid.UUID, error) {
	raw := r.Header.Get(OrgIDHeader)
	if raw == "" {
		return uuid.Nil, errors.New("missing organization header")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.New("malformed organization header")
	}
	return id, nil
}

func pathUUID(r *http.Request, param string) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, param))
}
