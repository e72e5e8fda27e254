package service

import (
	"context"

	"github.com/google/uuid"

	api "github.com/neocertify/neocertify/internal/api/v1"
	"github.com/neocertify/neocertify/internal/instrumentation"
)

// CreateShipment transfers stock to another organization. Allocation is
// oldest lot first and all or nothing: a single short product line fails
// the whole request with the product named.
func (h *ServiceHandler) CreateShipment(ctx context.Context, orgID uuid.UUID, req api.CreateShipmentRequest) (*api.CreateShipmentResult, api.Status) {
	if status := h.validateRequest(req); status != nil {
		return nil, *status
	}
	caller, err := h.store.Organization().GetActive(ctx, orgID)
	if err != nil {
		return nil, StoreErrorToApiStatus(err)
	}
	if caller.Type != string(api.OrgTypeManufacturer) && caller.Type != string(api.OrgTypeDistributor) {
		return nil, api.StatusForbidden("only manufacturers and distributors ship")
	}
	if req.ToOrganizationID == orgID {
		return nil, api.StatusBadRequest(api.ReasonValidationError, "cannot ship to own organization")
	}

	batch, total, err := h.store.Shipment().Process(ctx, orgID, req.ToOrganizationID, req.Items)
	if err != nil {
		return nil, StoreErrorToApiStatus(err)
	}

	instrumentation.TransferOps.WithLabelValues(string(api.ActionShipped)).Inc()
	instrumentation.TransferUnits.WithLabelValues(string(api.ActionShipped)).Add(float64(total))
	h.log.WithFields(map[string]interface{}{
		"batch": batch.ID,
		"from":  orgID,
		"to":    req.ToOrganizationID,
		"units": total,
	}).Info("shipment processed")

	return &api.CreateShipmentResult{ShipmentBatchID: batch.ID, TotalQuantity: total}, api.StatusCreated()
}

// RecallShipment undoes a batch the caller sent, within the recall window.
func (h *ServiceHandler) RecallShipment(ctx context.Context, orgID, batchID uuid.UUID, req api.RecallShipmentRequest) (int, api.Status) {
	if status := h.validateRequest(req); status != nil {
		return 0, *status
	}
	recalled, err := h.store.Shipment().Recall(ctx, orgID, batchID, req.Reason, h.recallWindow)
	if err != nil {
		return 0, StoreErrorToApiStatus(err)
	}

	instrumentation.TransferOps.WithLabelValues(string(api.ActionReturned)).Inc()
	instrumentation.TransferUnits.WithLabelValues(string(api.ActionReturned)).Add(float64(recalled))
	h.log.WithFields(map[string]interface{}{
		"batch": batchID,
		"units": recalled,
	}).Info("shipment recalled")

	return recalled, api.StatusOK()
}

// ReturnShipment sends units of a received batch back to the sender. The
// original batch keeps its membership; the returned units travel in a new
// batch referencing it as parent.
func (h *ServiceHandler) ReturnShipment(ctx context.Context, orgID, batchID uuid.UUID, req api.ReturnShipmentRequest) (*api.ReturnShipmentResult, api.Status) {
	if status := h.validateRequest(req); status != nil {
		return nil, *status
	}
	newBatch, returned, err := h.store.Shipment().Return(ctx, orgID, batchID, req.Reason, req.ProductQuantities)
	if err != nil {
		return nil, StoreErrorToApiStatus(err)
	}

	instrumentation.TransferOps.WithLabelValues(string(api.ActionReturned)).Inc()
	instrumentation.TransferUnits.WithLabelValues(string(api.ActionReturned)).Add(float64(returned))
	h.log.WithFields(map[string]interface{}{
		"batch":    batchID,
		"newBatch": newBatch.ID,
		"units":    returned,
	}).Info("shipment returned")

	return &api.ReturnShipmentResult{NewBatchID: newBatch.ID, ReturnedCount: returned}, api.StatusCreated()
}
