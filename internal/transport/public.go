package transport

import (
	"crypto/subtle"
	"net/http"

	api "github.com/neocertify/neocertify/internal/api/v1"
)

// WebhookTokenHeader authenticates the notification provider's delivery
// callback.
const WebhookTokenHeader = "X-Aligo-Token"

// Verify handles the public, unauthenticated verification lookup.
func (h *TransportHandler) Verify(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("code")
	if token == "" {
		WriteResponse(w, api.StatusBadRequest(api.ReasonValidationError, "code query parameter is required"), nil)
		return
	}
	result, status := h.service.Verify(r.Context(), token)
	WriteResponse(w, status, result)
}

// Inquiry handles the public treatment-history lookup, by patient phone
// or by a single signed code.
func (h *TransportHandler) Inquiry(w http.ResponseWriter, r *http.Request) {
	phone := r.URL.Query().Get("phone")
	code := r.URL.Query().Get("code")
	switch {
	case phone != "":
		result, status := h.service.Inquiry(r.Context(), phone)
		WriteResponse(w, status, result)
	case code != "":
		result, status := h.service.InquiryByCode(r.Context(), code)
		WriteResponse(w, status, result)
	default:
		WriteResponse(w, api.StatusBadRequest(api.ReasonValidationError, "phone or code query parameter is required"), nil)
	}
}

// AlimtalkWebhook receives delivery callbacks from the notification
// provider, authenticated by a shared token.
func (h *TransportHandler) AlimtalkWebhook(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get(WebhookTokenHeader)
	if h.webhookToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(h.webhookToken)) != 1 {
		WriteResponse(w, api.StatusForbidden("invalid webhook token"), nil)
		return
	}

	var updates []api.MessageStatusUpdate
	if !decodeBody(w, r, &updates) {
		return
	}
	applied, status := h.service.ApplyMessageStatusUpdates(r.Context(), updates)
	WriteResponse(w, status, map[string]int{"applied": applied})
}
