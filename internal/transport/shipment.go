package transport

import (
	"net/http"

	"github.com/google/uuid"

	api "github.com/neocertify/neocertify/internal/api/v1"
)

func (h *TransportHandler) CreateShipment(w http.ResponseWriter, r *http.Request) {
	h.withOrg(func(w http.ResponseWriter, r *http.Request, callerID uuid.UUID) {
		var req api.CreateShipmentRequest
		if !decodeBody(w, r, &req) {
			return
		}
		result, status := h.service.CreateShipment(r.Context(), callerID, req)
		WriteResponse(w, status, result)
	})(w, r)
}

func (h *TransportHandler) RecallShipment(w http.ResponseWriter, r *http.Request) {
	h.withOrg(func(w http.ResponseWriter, r *http.Request, callerID uuid.UUID) {
		id, err := pathUUID(r, "id")
		if err != nil {
			WriteResponse(w, api.StatusBadRequest(api.ReasonValidationError, "malformed batch id"), nil)
			return
		}
		var req api.RecallShipmentRequest
		if !decodeBody(w, r, &req) {
			return
		}
		recalled, status := h.service.RecallShipment(r.Context(), callerID, id, req)
		WriteResponse(w, status, map[string]int{"recalledCount": recalled})
	})(w, r)
}

func (h *TransportHandler) ReturnShipment(w http.ResponseWriter, r *http.Request) {
	h.withOrg(func(w http.ResponseWriter, r *http.Request, callerID uuid.UUID) {
		id, err := pathUUID(r, "id")
		if err != nil {
			WriteResponse(w, api.StatusBadRequest(api.ReasonValidationError, "malformed batch id"), nil)
			return
		}
		var req api.ReturnShipmentRequest
		if !decodeBody(w, r, &req) {
			return
		}
		result, status := h.service.ReturnShipment(r.Context(), callerID, id, req)
		WriteResponse(w, status, result)
	})(w, r)
}

func (h *TransportHandler) CreateTreatment(w http.ResponseWriter, r *http.Request) {
	h.withOrg(func(w http.ResponseWriter, r *http.Request, callerID uuid.UUID) {
		var req api.CreateTreatmentRequest
		if !decodeBody(w, r, &req) {
			return
		}
		result, status := h.service.CreateTreatment(r.Context(), callerID, req)
		WriteResponse(w, status, result)
	})(w, r)
}

func (h *TransportHandler) RecallTreatment(w http.ResponseWriter, r *http.Request) {
	h.withOrg(func(w http.ResponseWriter, r *http.Request, callerID uuid.UUID) {
		id, err := pathUUID(r, "id")
		if err != nil {
			WriteResponse(w, api.StatusBadRequest(api.ReasonValidationError, "malformed treatment id"), nil)
			return
		}
		var req api.RecallTreatmentRequest
		if !decodeBody(w, r, &req) {
			return
		}
		recalled, status := h.service.RecallTreatment(r.Context(), callerID, id, req)
		WriteResponse(w, status, map[string]int{"recalledCount": recalled})
	})(w, r)
}

func (h *TransportHandler) CreateDisposal(w http.ResponseWriter, r *http.Request) {
	h.withOrg(func(w http.ResponseWriter, r *http.Request, callerID uuid.UUID) {
		var req api.CreateDisposalRequest
		if !decodeBody(w, r, &req) {
			return
		}
		result, status := h.service.CreateDisposal(r.Context(), callerID, req)
		WriteResponse(w, status, result)
	})(w, r)
}
