package transport

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	api "github.com/neocertify/neocertify/internal/api/v1"
)

func (h *TransportHandler) GetInventory(w http.ResponseWriter, r *http.Request) {
	h.withOrg(func(w http.ResponseWriter, r *http.Request, callerID uuid.UUID) {
		result, status := h.service.GetInventory(r.Context(), callerID)
		WriteResponse(w, status, result)
	})(w, r)
}

func (h *TransportHandler) GetProductInventory(w http.ResponseWriter, r *http.Request) {
	h.withOrg(func(w http.ResponseWriter, r *http.Request, callerID uuid.UUID) {
		id, err := pathUUID(r, "productId")
		if err != nil {
			WriteResponse(w, api.StatusBadRequest(api.ReasonValidationError, "malformed product id"), nil)
			return
		}
		result, status := h.service.GetProductInventory(r.Context(), callerID, id)
		WriteResponse(w, status, result)
	})(w, r)
}

func (h *TransportHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	h.withOrg(func(w http.ResponseWriter, r *http.Request, callerID uuid.UUID) {
		query, err := parseHistoryQuery(r)
		if err != nil {
			WriteResponse(w, api.StatusBadRequest(api.ReasonValidationError, err.Error()), nil)
			return
		}
		result, status := h.service.ListHistory(r.Context(), callerID, query)
		WriteResponse(w, status, result)
	})(w, r)
}

func (h *TransportHandler) SearchPatients(w http.ResponseWriter, r *http.Request) {
	h.withOrg(func(w http.ResponseWriter, r *http.Request, callerID uuid.UUID) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		result, status := h.service.SearchPatients(r.Context(), callerID, r.URL.Query().Get("q"), limit)
		WriteResponse(w, status, result)
	})(w, r)
}

func parseHistoryQuery(r *http.Request) (api.HistoryQuery, error) {
	values := r.URL.Query()
	query := api.HistoryQuery{
		StartDate: values.Get("startDate"),
		EndDate:   values.Get("endDate"),
	}

	if raw := values.Get("actionTypes"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			query.ActionTypes = append(query.ActionTypes, api.ActionType(strings.TrimSpace(part)))
		}
	}
	if raw := values.Get("isRecall"); raw != "" {
		isRecall, err := strconv.ParseBool(raw)
		if err != nil {
			return query, err
		}
		query.IsRecall = &isRecall
	}
	if raw := values.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return query, err
		}
		query.Limit = limit
	}
	if raw := values.Get("cursorTime"); raw != "" {
		cursorTime, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return query, err
		}
		query.CursorTime = &cursorTime
	}
	if raw := values.Get("cursorKey"); raw != "" {
		cursorKey, err := uuid.Parse(raw)
		if err != nil {
			return query, err
		}
		query.CursorKey = &cursorKey
	}
	return query, nil
}
