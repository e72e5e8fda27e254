package service

import (
	"context"

	"github.com/google/uuid"

	api "github.com/neocertify/neocertify/internal/api/v1"
	"github.com/neocertify/neocertify/internal/store/model"
)

func (h *ServiceHandler) CreateProduct(ctx context.Context, orgID uuid.UUID, req api.CreateProductRequest) (*api.Product, api.Status) {
	if status := h.validateRequest(req); status != nil {
		return nil, *status
	}
	caller, err := h.store.Organization().GetActive(ctx, orgID)
	if err != nil {
		return nil, StoreErrorToApiStatus(err)
	}
	if caller.Type != string(api.OrgTypeManufacturer) {
		return nil, api.StatusForbidden("only manufacturers register products")
	}
	product, err := h.store.Product().Create(ctx, &model.Product{
		OrganizationID: orgID,
		Name:           req.Name,
		UdiDi:          req.UdiDi,
		ModelName:      req.ModelName,
		IsActive:       true,
	})
	if err != nil {
		return nil, StoreErrorToApiStatus(err)
	}
	result := product.ToApiResource()
	return &result, api.StatusCreated()
}

func (h *ServiceHandler) GetProduct(ctx context.Context, orgID, productID uuid.UUID) (*api.Product, api.Status) {
	product, err := h.store.Product().Get(ctx, orgID, productID)
	if err != nil {
		return nil, StoreErrorToApiStatus(err)
	}
	result := product.ToApiResource()
	return &result, api.StatusOK()
}

func (h *ServiceHandler) ListProducts(ctx context.Context, orgID uuid.UUID) ([]api.Product, api.Status) {
	products, err := h.store.Product().List(ctx, orgID)
	if err != nil {
		return nil, StoreErrorToApiStatus(err)
	}
	results := make([]api.Product, len(products))
	for i := range products {
		results[i] = products[i].ToApiResource()
	}
	return results, api.StatusOK()
}

// DeactivateProduct retires a product from new lot registration. Units
// already issued keep circulating and remain verifiable.
func (h *ServiceHandler) DeactivateProduct(ctx context.Context, orgID, productID uuid.UUID, reason api.DeactivationReason) api.Status {
	switch reason {
	case api.DeactivationDiscontinued, api.DeactivationSafetyIssue, api.DeactivationOther:
	default:
		return api.StatusBadRequest(api.ReasonValidationError, "unknown deactivation reason")
	}
	if err := h.store.Product().Deactivate(ctx, orgID, productID, string(reason)); err != nil {
		return StoreErrorToApiStatus(err)
	}
	return api.StatusOK()
}

// UpdateCodePrefix sets the serial prefix stamped into the manufacturer's
// future codes. Existing serials are immutable.
func (h *ServiceHandler) UpdateCodePrefix(ctx context.Context, orgID uuid.UUID, prefix string) api.Status {
	if prefix == "" || len(prefix) > 10 {
		return api.StatusBadRequest(api.ReasonValidationError, "code prefix must be 1 to 10 characters")
	}
	if err := h.store.Product().UpsertSettings(ctx, orgID, prefix); err != nil {
		return StoreErrorToApiStatus(err)
	}
	return api.StatusOK()
}
