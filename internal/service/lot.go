package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	api "github.com/neocertify/neocertify/internal/api/v1"
	"github.com/neocertify/neocertify/internal/store"
	"github.com/neocertify/neocertify/internal/store/model"
)

const defaultCodePrefix = "NC"

// CreateLot registers a production lot and issues one signed serial per
// unit, all in a single transaction.
func (h *ServiceHandler) CreateLot(ctx context.Context, orgID uuid.UUID, req api.CreateLotRequest) (*api.CreateLotResult, api.Status) {
	if status := h.validateRequest(req); status != nil {
		return nil, *status
	}
	caller, err := h.store.Organization().GetActive(ctx, orgID)
	if err != nil {
		return nil, StoreErrorToApiStatus(err)
	}
	if caller.Type != string(api.OrgTypeManufacturer) {
		return nil, api.StatusForbidden("only manufacturers register lots")
	}

	lot := &model.Lot{
		ProductID:       req.ProductID,
		LotNumber:       req.LotNumber,
		ManufactureDate: req.ManufactureDate,
		ExpiryDate:      req.ExpiryDate,
	}
	gen := h.codeGenerator(ctx, orgID, req.LotNumber)
	lot, err = h.store.Lot().Create(ctx, orgID, lot, req.Quantity, gen)
	if err != nil {
		return nil, StoreErrorToApiStatus(err)
	}
	return &api.CreateLotResult{LotID: lot.ID, TotalQuantity: lot.Quantity}, api.StatusCreated()
}

// AddLotQuantity issues additional units under an existing lot.
func (h *ServiceHandler) AddLotQuantity(ctx context.Context, orgID, lotID uuid.UUID, quantity int) (*api.CreateLotResult, api.Status) {
	if quantity <= 0 || quantity > 100000 {
		return nil, api.StatusBadRequest(api.ReasonValidationError, "quantity must be between 1 and 100000")
	}
	lot, err := h.store.Lot().Get(ctx, orgID, lotID)
	if err != nil {
		return nil, StoreErrorToApiStatus(err)
	}
	gen := h.codeGenerator(ctx, orgID, lot.LotNumber)
	total, err := h.store.Lot().AddUnits(ctx, orgID, lotID, quantity, gen)
	if err != nil {
		return nil, StoreErrorToApiStatus(err)
	}
	return &api.CreateLotResult{LotID: lotID, TotalQuantity: total}, api.StatusOK()
}

// codeGenerator builds serials of the form PREFIX-LOT-SEQ-SIG8 where SIG8
// is the first 8 hex chars, uppercased, of the HMAC over the preceding
// parts. The serial alone is not verifiable; public verification uses the
// full signed token appended at print time.
func (h *ServiceHandler) codeGenerator(ctx context.Context, orgID uuid.UUID, lotNumber string) store.CodeGenerator {
	prefix := defaultCodePrefix
	if settings, err := h.store.Product().GetSettings(ctx, orgID); err == nil && settings.CodePrefix != "" {
		prefix = settings.CodePrefix
	}
	return func(seq int) string {
		base := fmt.Sprintf("%s-%s-%06d", prefix, lotNumber, seq)
		sig := strings.ToUpper(h.signer.Sign(base)[:8])
		return base + "-" + sig
	}
}

// SignedToken returns the public verification token for a serial.
func (h *ServiceHandler) SignedToken(serial string) string {
	return h.signer.SignCode(serial)
}
