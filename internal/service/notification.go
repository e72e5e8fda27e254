package service

import (
	"context"

	api "github.com/neocertify/neocertify/internal/api/v1"
)

// ApplyMessageStatusUpdates applies a batch of delivery callbacks from the
// notification provider. Updates naming unknown provider message ids are
// counted but otherwise ignored; the provider retries callbacks and may
// deliver them out of order with our own send bookkeeping.
func (h *ServiceHandler) ApplyMessageStatusUpdates(ctx context.Context, updates []api.MessageStatusUpdate) (int, api.Status) {
	applied := 0
	for _, update := range updates {
		if update.ProviderMessageID == "" {
			continue
		}
		ok, err := h.store.Notification().UpdateByProviderMessageID(ctx, update)
		if err != nil {
			return applied, StoreErrorToApiStatus(err)
		}
		if ok {
			applied++
		} else {
			h.log.WithField("mid", update.ProviderMessageID).Debug("delivery callback for unknown message")
		}
	}
	return applied, api.StatusOK()
}
