package service

import (
	"context"

	"github.com/google/uuid"

	api "github.com/neocertify/neocertify/internal/api/v1"
)

// GetInventory summarizes the caller's IN_STOCK units per product.
func (h *ServiceHandler) GetInventory(ctx context.Context, orgID uuid.UUID) ([]api.InventorySummary, api.Status) {
	rows, err := h.store.Code().InventorySummary(ctx, orgID)
	if err != nil {
		return nil, StoreErrorToApiStatus(err)
	}
	return rows, api.StatusOK()
}

// GetProductInventory breaks one product's stock down per lot, oldest
// manufacture date first. The ordering matches the allocation order, so
// the first lot listed is the next one shipped from.
func (h *ServiceHandler) GetProductInventory(ctx context.Context, orgID, productID uuid.UUID) ([]api.LotInventory, api.Status) {
	rows, err := h.store.Code().LotInventory(ctx, orgID, productID)
	if err != nil {
		return nil, StoreErrorToApiStatus(err)
	}
	return rows, api.StatusOK()
}
