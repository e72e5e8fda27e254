package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"

	api "github.com/neocertify/neocertify/internal/api/v1"
	"github.com/neocertify/neocertify/internal/store/model"
)

// RegisterOrganization creates a new participant in PENDING_APPROVAL
// status. An administrator activates it out of band.
func (h *ServiceHandler) RegisterOrganization(ctx context.Context, req api.RegisterOrganizationRequest) (*api.Organization, api.Status) {
	if status := h.validateRequest(req); status != nil {
		return nil, *status
	}
	org, err := h.store.Organization().Create(ctx, &model.Organization{
		Type:           string(req.Type),
		Name:           req.Name,
		Email:          req.Email,
		BusinessNumber: req.BusinessNumber,
		Address:        req.Address,
		Status:         string(api.OrgStatusPendingApproval),
	})
	if err != nil {
		return nil, StoreErrorToApiStatus(err)
	}
	result := toApiOrganization(org)
	return &result, api.StatusCreated()
}

func (h *ServiceHandler) GetOrganization(ctx context.Context, orgID uuid.UUID) (*api.Organization, api.Status) {
	org, err := h.store.Organization().Get(ctx, orgID)
	if err != nil {
		return nil, StoreErrorToApiStatus(err)
	}
	result := toApiOrganization(org)
	return &result, api.StatusOK()
}

// ListShipmentTargets returns the active organizations the caller may ship
// to. Hospitals do not ship.
func (h *ServiceHandler) ListShipmentTargets(ctx context.Context, orgID uuid.UUID) ([]api.Organization, api.Status) {
	caller, err := h.store.Organization().GetActive(ctx, orgID)
	if err != nil {
		return nil, StoreErrorToApiStatus(err)
	}
	if caller.Type != string(api.OrgTypeManufacturer) && caller.Type != string(api.OrgTypeDistributor) {
		return nil, api.StatusForbidden("only manufacturers and distributors ship")
	}
	orgs, err := h.store.Organization().ListShipmentTargets(ctx, orgID)
	if err != nil {
		return nil, StoreErrorToApiStatus(err)
	}
	results := make([]api.Organization, len(orgs))
	for i := range orgs {
		results[i] = toApiOrganization(&orgs[i])
	}
	return results, api.StatusOK()
}

// orgName resolves an organization's display name through a short TTL
// cache; history summaries hit the same few organizations repeatedly.
func (h *ServiceHandler) orgName(ctx context.Context, orgID uuid.UUID) string {
	if item := h.orgNames.Get(orgID); item != nil {
		return item.Value()
	}
	org, err := h.store.Organization().Get(ctx, orgID)
	if err != nil {
		return ""
	}
	h.orgNames.Set(orgID, org.Name, ttlcache.DefaultTTL)
	return org.Name
}

func toApiOrganization(org *model.Organization) api.Organization {
	return api.Organization{
		ID:             org.ID,
		Type:           api.OrgType(org.Type),
		Name:           org.Name,
		Email:          org.Email,
		BusinessNumber: org.BusinessNumber,
		Address:        org.Address,
		Status:         api.OrgStatus(org.Status),
		CreatedAt:      org.CreatedAt,
	}
}
