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

// CodeGenerator produces the serial for the next unit of a lot. seq is
// 1-based and strictly increasing within the lot.
type CodeGenerator func(seq int) string

type Lot interface {
	// Create registers a lot and issues its initial units in one
	// transaction. The new units are owned by the manufacturer.
	Create(ctx context.Context, orgID uuid.UUID, lot *model.Lot, quantity int, gen CodeGenerator) (*model.Lot, error)
	// AddUnits issues additional units under an existing lot and returns
	// the new total.
	AddUnits(ctx context.Context, orgID, lotID uuid.UUID, quantity int, gen CodeGenerator) (int, error)
	Get(ctx context.Context, orgID, id uuid.UUID) (*model.Lot, error)
	List(ctx context.Context, orgID, productID uuid.UUID) ([]model.Lot, error)
}

type LotStore struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

func NewLot(db *gorm.DB, log logrus.FieldLogger) Lot {
	return &LotStore{db: db, log: log}
}

func (s *LotStore) Create(ctx context.Context, orgID uuid.UUID, lot *model.Lot, quantity int, gen CodeGenerator) (*model.Lot, error) {
	if lot == nil {
		return nil, ncerrors.ErrResourceIsNil
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product model.Product
		if err := tx.First(&product, "id = ? AND organization_id = ?", lot.ProductID, orgID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ncerrors.ErrProductNotFound
			}
			return ncerrors.ErrorFromGormError(err)
		}
		if !product.IsActive {
			return ncerrors.ErrProductNotFound
		}
		lot.Quantity = 0
		if err := tx.Create(lot).Error; err != nil {
			return ncerrors.ErrorFromGormError(err)
		}
		return issueUnits(tx, orgID, lot, quantity, gen)
	})
	if err != nil {
		return nil, err
	}
	return lot, nil
}

func (s *LotStore) AddUnits(ctx context.Context, orgID, lotID uuid.UUID, quantity int, gen CodeGenerator) (int, error) {
	var total int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lot model.Lot
		if err := tx.Joins("Product").First(&lot, "lots.id = ?", lotID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ncerrors.ErrLotNotFound
			}
			return ncerrors.ErrorFromGormError(err)
		}
		if lot.Product == nil || lot.Product.OrganizationID != orgID {
			return ncerrors.ErrLotNotFound
		}
		if err := issueUnits(tx, orgID, &lot, quantity, gen); err != nil {
			return err
		}
		total = lot.Quantity
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// issueUnits mints quantity fresh units under the lot, stamps the starting
// history row for each, and bumps the lot total. The quantity bump is
// conditional on the total the caller read; a concurrent issuer forces a
// rollback instead of reusing serial numbers.
func issueUnits(tx *gorm.DB, orgID uuid.UUID, lot *model.Lot, quantity int, gen CodeGenerator) error {
	base := lot.Quantity
	result := tx.Model(&model.Lot{}).
		Where("id = ? AND quantity = ?", lot.ID, base).
		Update("quantity", base+quantity)
	if result.Error != nil {
		return ncerrors.ErrorFromGormError(result.Error)
	}
	if result.RowsAffected != 1 {
		return ncerrors.ErrStockConflict
	}

	codes := make([]model.VirtualCode, quantity)
	for i := 0; i < quantity; i++ {
		codes[i] = model.VirtualCode{
			Code:       gen(base + i + 1),
			LotID:      lot.ID,
			Status:     string(api.CodeStatusInStock),
			OwnerOrgID: &orgID,
		}
	}
	if err := tx.Create(&codes).Error; err != nil {
		return ncerrors.ErrorFromGormError(err)
	}

	if err := appendHistories(tx, codes, func(code *model.VirtualCode) model.History {
		return model.History{
			VirtualCodeID: code.ID,
			ActionType:    string(api.ActionManufactured),
			ToOrgID:       &orgID,
		}
	}); err != nil {
		return err
	}

	lot.Quantity = base + quantity
	return nil
}

func (s *LotStore) Get(ctx context.Context, orgID, id uuid.UUID) (*model.Lot, error) {
	var lot model.Lot
	result := s.db.WithContext(ctx).Joins("Product").First(&lot, "lots.id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ncerrors.ErrLotNotFound
		}
		return nil, ncerrors.ErrorFromGormError(result.Error)
	}
	if lot.Product == nil || lot.Product.OrganizationID != orgID {
		return nil, ncerrors.ErrLotNotFound
	}
	return &lot, nil
}

func (s *LotStore) List(ctx context.Context, orgID, productID uuid.UUID) ([]model.Lot, error) {
	var lots []model.Lot
	result := s.db.WithContext(ctx).
		Joins("JOIN products ON products.id = lots.product_id").
		Where("lots.product_id = ? AND products.organization_id = ?", productID, orgID).
		Order("lots.manufacture_date ASC, lots.created_at ASC").
		Find(&lots)
	if result.Error != nil {
		return nil, ncerrors.ErrorFromGormError(result.Error)
	}
	return lots, nil
}
