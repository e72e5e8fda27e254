package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	api "github.com/neocertify/neocertify/internal/api/v1"
	"github.com/neocertify/neocertify/internal/ncerrors"
	"github.com/neocertify/neocertify/internal/store/model"
)

type Code interface {
	Get(ctx context.Context, id uuid.UUID) (*model.VirtualCode, error)
	// GetBySerial looks up a unit by its full serial string, with lot and
	// product loaded.
	GetBySerial(ctx context.Context, serial string) (*model.VirtualCode, error)
	// InventorySummary aggregates an organization's IN_STOCK units per
	// product.
	InventorySummary(ctx context.Context, orgID uuid.UUID) ([]api.InventorySummary, error)
	// LotInventory breaks one product's IN_STOCK units down per lot,
	// oldest manufacture date first.
	LotInventory(ctx context.Context, orgID, productID uuid.UUID) ([]api.LotInventory, error)
	CountInStock(ctx context.Context, orgID, productID uuid.UUID) (int, error)
}

type CodeStore struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

func NewCode(db *gorm.DB, log logrus.FieldLogger) Code {
	return &CodeStore{db: db, log: log}
}

func (s *CodeStore) Get(ctx context.Context, id uuid.UUID) (*model.VirtualCode, error) {
	var code model.VirtualCode
	result := s.db.WithContext(ctx).Preload("Lot.Product").First(&code, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ncerrors.ErrResourceNotFound
		}
		return nil, ncerrors.ErrorFromGormError(result.Error)
	}
	return &code, nil
}

func (s *CodeStore) GetBySerial(ctx context.Context, serial string) (*model.VirtualCode, error) {
	var code model.VirtualCode
	result := s.db.WithContext(ctx).Preload("Lot.Product").First(&code, "code = ?", serial)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ncerrors.ErrResourceNotFound
		}
		return nil, ncerrors.ErrorFromGormError(result.Error)
	}
	return &code, nil
}

func (s *CodeStore) InventorySummary(ctx context.Context, orgID uuid.UUID) ([]api.InventorySummary, error) {
	var rows []api.InventorySummary
	result := s.db.WithContext(ctx).Table("virtual_codes").
		Select("products.id AS product_id, products.name AS product_name, products.model_name, products.udi_di, COUNT(*) AS total_quantity").
		Joins("JOIN lots ON lots.id = virtual_codes.lot_id").
		Joins("JOIN products ON products.id = lots.product_id").
		Where("virtual_codes.owner_org_id = ?", orgID).
		Where("virtual_codes.status = ?", string(api.CodeStatusInStock)).
		Group("products.id, products.name, products.model_name, products.udi_di").
		Order("products.name ASC").
		Scan(&rows)
	if result.Error != nil {
		return nil, ncerrors.ErrorFromGormError(result.Error)
	}
	return rows, nil
}

func (s *CodeStore) LotInventory(ctx context.Context, orgID, productID uuid.UUID) ([]api.LotInventory, error) {
	var rows []api.LotInventory
	result := s.db.WithContext(ctx).Table("virtual_codes").
		Select("lots.id AS lot_id, lots.lot_number, lots.manufacture_date, lots.expiry_date, COUNT(*) AS quantity").
		Joins("JOIN lots ON lots.id = virtual_codes.lot_id").
		Where("virtual_codes.owner_org_id = ?", orgID).
		Where("virtual_codes.status = ?", string(api.CodeStatusInStock)).
		Where("lots.product_id = ?", productID).
		Group("lots.id, lots.lot_number, lots.manufacture_date, lots.expiry_date").
		Order("lots.manufacture_date ASC").
		Scan(&rows)
	if result.Error != nil {
		return nil, ncerrors.ErrorFromGormError(result.Error)
	}
	return rows, nil
}

func (s *CodeStore) CountInStock(ctx context.Context, orgID, productID uuid.UUID) (int, error) {
	var count int64
	result := s.db.WithContext(ctx).Model(&model.VirtualCode{}).
		Joins("JOIN lots ON lots.id = virtual_codes.lot_id").
		Where("virtual_codes.owner_org_id = ?", orgID).
		Where("virtual_codes.status = ?", string(api.CodeStatusInStock)).
		Where("lots.product_id = ?", productID).
		Count(&count)
	if result.Error != nil {
		return 0, ncerrors.ErrorFromGormError(result.Error)
	}
	return int(count), nil
}
