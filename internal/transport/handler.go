package transport

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	api "github.com/neocertify/neocertify/internal/api/v1"
	"github.com/neocertify/neocertify/internal/service"
)

type TransportHandler struct {
	service      *service.ServiceHandler
	webhookToken string
	log          logrus.FieldLogger
}

func NewTransportHandler(svc *service.ServiceHandler, webhookToken string, log logrus.FieldLogger) *TransportHandler {
	return &TransportHandler{service: svc, webhookToken: webhookToken, log: log}
}

// withOrg wraps an authenticated handler, rejecting requests without a
// valid organization header before any work happens.
func (h *TransportHandler) withOrg(next func(w http.ResponseWriter, r *http.Request, orgID uuid.UUID)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := orgID(r)
		if err != nil {
			WriteResponse(w, api.StatusForbidden(err.Error()), nil)
			return
		}
		next(w, r, id)
	}
}
