package service

import (
	"context"

	"github.com/google/uuid"

	api "github.com/neocertify/neocertify/internal/api/v1"
	"github.com/neocertify/neocertify/internal/instrumentation"
)

// CreateDisposal removes units from circulation permanently. Disposed
// units keep their full audit trail and stay publicly verifiable.
func (h *ServiceHandler) CreateDisposal(ctx context.Context, orgID uuid.UUID, req api.CreateDisposalRequest) (*api.CreateDisposalResult, api.Status) {
	if status := h.validateRequest(req); status != nil {
		return nil, *status
	}
	if req.ReasonType == api.DisposalReasonOther && req.ReasonCustom == "" {
		return nil, api.StatusBadRequest(api.ReasonValidationError, "reasonCustom is required when reasonType is OTHER")
	}
	if _, err := h.store.Organization().GetActive(ctx, orgID); err != nil {
		return nil, StoreErrorToApiStatus(err)
	}

	record, total, err := h.store.Disposal().Process(ctx, orgID, req.DisposalDate, req.ReasonType, req.ReasonCustom, req.Items)
	if err != nil {
		return nil, StoreErrorToApiStatus(err)
	}

	instrumentation.TransferOps.WithLabelValues(string(api.ActionDisposed)).Inc()
	instrumentation.TransferUnits.WithLabelValues(string(api.ActionDisposed)).Add(float64(total))
	h.log.WithFields(map[string]interface{}{
		"disposal": record.ID,
		"org":      orgID,
		"units":    total,
	}).Info("disposal processed")

	return &api.CreateDisposalResult{DisposalID: record.ID, TotalQuantity: total}, api.StatusCreated()
}
