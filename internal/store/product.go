package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/neocertify/neocertify/internal/ncerrors"
	"github.com/neocertify/neocertify/internal/store/model"
)

type Product interface {
	Create(ctx context.Context, product *model.Product) (*model.Product, error)
	Get(ctx context.Context, orgID, id uuid.UUID) (*model.Product, error)
	// GetByID looks a product up without an owner scope, for display in
	// cross-organization contexts.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	List(ctx context.Context, orgID uuid.UUID) ([]model.Product, error)
	// Deactivate retires a product from further lot registration. Existing
	// units keep circulating.
	Deactivate(ctx context.Context, orgID, id uuid.UUID, reason string) error
	GetSettings(ctx context.Context, orgID uuid.UUID) (*model.ManufacturerSettings, error)
	UpsertSettings(ctx context.Context, orgID uuid.UUID, codePrefix string) error
}

type ProductStore struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

func NewProduct(db *gorm.DB, log logrus.FieldLogger) Product {
	return &ProductStore{db: db, log: log}
}

func (s *ProductStore) Create(ctx context.Context, product *model.Product) (*model.Product, error) {
	if product == nil {
		return nil, ncerrors.ErrResourceIsNil
	}
	result := s.db.WithContext(ctx).Create(product)
	if result.Error != nil {
		return nil, ncerrors.ErrorFromGormError(result.Error)
	}
	return product, nil
}

func (s *ProductStore) Get(ctx context.Context, orgID, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	result := s.db.WithContext(ctx).First(&product, "id = ? AND organization_id = ?", id, orgID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ncerrors.ErrProductNotFound
		}
		return nil, ncerrors.ErrorFromGormError(result.Error)
	}
	return &product, nil
}

func (s *ProductStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	result := s.db.WithContext(ctx).First(&product, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ncerrors.ErrProductNotFound
		}
		return nil, ncerrors.ErrorFromGormError(result.Error)
	}
	return &product, nil
}

func (s *ProductStore) List(ctx context.Context, orgID uuid.UUID) ([]model.Product, error) {
	var products []model.Product
	result := s.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("created_at DESC").
		Find(&products)
	if result.Error != nil {
		return nil, ncerrors.ErrorFromGormError(result.Error)
	}
	return products, nil
}

func (s *ProductStore) Deactivate(ctx context.Context, orgID, id uuid.UUID, reason string) error {
	result := s.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ? AND organization_id = ?", id, orgID).
		Updates(map[string]interface{}{
			"is_active":           false,
			"deactivation_reason": reason,
		})
	if result.Error != nil {
		return ncerrors.ErrorFromGormError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ncerrors.ErrProductNotFound
	}
	return nil
}

func (s *ProductStore) GetSettings(ctx context.Context, orgID uuid.UUID) (*model.ManufacturerSettings, error) {
	var settings model.ManufacturerSettings
	result := s.db.WithContext(ctx).First(&settings, "organization_id = ?", orgID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ncerrors.ErrResourceNotFound
		}
		return nil, ncerrors.ErrorFromGormError(result.Error)
	}
	return &settings, nil
}

func (s *ProductStore) UpsertSettings(ctx context.Context, orgID uuid.UUID, codePrefix string) error {
	var settings model.ManufacturerSettings
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.First(&settings, "organization_id = ?", orgID)
		if result.Error != nil {
			if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return result.Error
			}
			settings = model.ManufacturerSettings{OrganizationID: orgID, CodePrefix: codePrefix}
			return tx.Create(&settings).Error
		}
		return tx.Model(&settings).Update("code_prefix", codePrefix).Error
	})
	return ncerrors.ErrorFromGormError(err)
}
