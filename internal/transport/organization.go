package transport

import (
	"net/http"

	"github.com/google/uuid"

	api "github.com/neocertify/neocertify/internal/api/v1"
)

func (h *TransportHandler) RegisterOrganization(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterOrganizationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	result, status := h.service.RegisterOrganization(r.Context(), req)
	WriteResponse(w, status, result)
}

func (h *TransportHandler) GetOrganization(w http.ResponseWriter, r *http.Request) {
	h.withOrg(func(w http.ResponseWriter, r *http.Request, callerID uuid.UUID) {
		id, err := pathUUID(r, "id")
		if err != nil {
			WriteResponse(w, api.StatusBadRequest(api.ReasonValidationError, "malformed organization id"), nil)
			return
		}
		result, status := h.service.GetOrganization(r.Context(), id)
		WriteResponse(w, status, result)
	})(w, r)
}

func (h *TransportHandler) ListShipmentTargets(w http.ResponseWriter, r *http.Request) {
	h.withOrg(func(w http.ResponseWriter, r *http.Request, callerID uuid.UUID) {
		result, status := h.service.ListShipmentTargets(r.Context(), callerID)
		WriteResponse(w, status, result)
	})(w, r)
}
