package transport

import (
	"net/http"

	"github.com/google/uuid"

	api "github.com/neocertify/neocertify/internal/api/v1"
)

func (h *TransportHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	h.withOrg(func(w http.ResponseWriter, r *http.Request, callerID uuid.UUID) {
		var req api.CreateProductRequest
		if !decodeBody(w, r, &req) {
			return
		}
		result, status := h.service.CreateProduct(r.Context(), callerID, req)
		WriteResponse(w, status, result)
	})(w, r)
}

func (h *TransportHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	h.withOrg(func(w http.ResponseWriter, r *http.Request, callerID uuid.UUID) {
		result, status := h.service.ListProducts(r.Context(), callerID)
		WriteResponse(w, status, result)
	})(w, r)
}

func (h *TransportHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	h.withOrg(func(w http.ResponseWriter, r *http.Request, callerID uuid.UUID) {
		id, err := pathUUID(r, "id")
		if err != nil {
			WriteResponse(w, api.StatusBadRequest(api.ReasonValidationError, "malformed product id"), nil)
			return
		}
		result, status := h.service.GetProduct(r.Context(), callerID, id)
		WriteResponse(w, status, result)
	})(w, r)
}

func (h *TransportHandler) DeactivateProduct(w http.ResponseWriter, r *http.Request) {
	h.withOrg(func(w http.ResponseWriter, r *http.Request, callerID uuid.UUID) {
		id, err := pathUUID(r, "id")
		if err != nil {
			WriteResponse(w, api.StatusBadRequest(api.ReasonValidationError, "malformed product id"), nil)
			return
		}
		var req struct {
			Reason api.DeactivationReason `json:"reason"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		status := h.service.DeactivateProduct(r.Context(), callerID, id, req.Reason)
		WriteResponse(w, status, nil)
	})(w, r)
}

func (h *TransportHandler) UpdateCodePrefix(w http.ResponseWriter, r *http.Request) {
	h.withOrg(func(w http.ResponseWriter, r *http.Request, callerID uuid.UUID) {
		var req struct {
			CodePrefix string `json:"codePrefix"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		status := h.service.UpdateCodePrefix(r.Context(), callerID, req.CodePrefix)
		WriteResponse(w, status, nil)
	})(w, r)
}

func (h *TransportHandler) CreateLot(w http.ResponseWriter, r *http.Request) {
	h.withOrg(func(w http.ResponseWriter, r *http.Request, callerID uuid.UUID) {
		var req api.CreateLotRequest
		if !decodeBody(w, r, &req) {
			return
		}
		result, status := h.service.CreateLot(r.Context(), callerID, req)
		WriteResponse(w, status, result)
	})(w, r)
}

func (h *TransportHandler) AddLotQuantity(w http.ResponseWriter, r *http.Request) {
	h.withOrg(func(w http.ResponseWriter, r *http.Request, callerID uuid.UUID) {
		id, err := pathUUID(r, "id")
		if err != nil {
			WriteResponse(w, api.StatusBadRequest(api.ReasonValidationError, "malformed lot id"), nil)
			return
		}
		var req struct {
			Quantity int `json:"quantity"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		result, status := h.service.AddLotQuantity(r.Context(), callerID, id, req.Quantity)
		WriteResponse(w, status, result)
	})(w, r)
}
