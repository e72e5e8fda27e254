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

type Organization interface {
	Create(ctx context.Context, org *model.Organization) (*model.Organization, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Organization, error)
	// GetActive returns the organization only when its status is ACTIVE.
	GetActive(ctx context.Context, id uuid.UUID) (*model.Organization, error)
	// ListShipmentTargets returns the active organizations an org of the
	// given type may ship to: manufacturers and distributors ship to
	// distributors and hospitals.
	ListShipmentTargets(ctx context.Context, fromID uuid.UUID) ([]model.Organization, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status api.OrgStatus) error
}

type OrganizationStore struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

func NewOrganization(db *gorm.DB, log logrus.FieldLogger) Organization {
	return &OrganizationStore{db: db, log: log}
}

func (s *OrganizationStore) Create(ctx context.Context, org *model.Organization) (*model.Organization, error) {
	if org == nil {
		return nil, ncerrors.ErrResourceIsNil
	}
	result := s.db.WithContext(ctx).Create(org)
	if result.Error != nil {
		return nil, ncerrors.ErrorFromGormError(result.Error)
	}
	return org, nil
}

func (s *OrganizationStore) Get(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	var org model.Organization
	result := s.db.WithContext(ctx).First(&org, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ncerrors.ErrOrganizationNotFound
		}
		return nil, ncerrors.ErrorFromGormError(result.Error)
	}
	return &org, nil
}

func (s *OrganizationStore) GetActive(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	org, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !org.IsActive() {
		return nil, ncerrors.ErrOrganizationNotFound
	}
	return org, nil
}

func (s *OrganizationStore) ListShipmentTargets(ctx context.Context, fromID uuid.UUID) ([]model.Organization, error) {
	var orgs []model.Organization
	result := s.db.WithContext(ctx).
		Where("status = ?", string(api.OrgStatusActive)).
		Where("type IN ?", []string{string(api.OrgTypeDistributor), string(api.OrgTypeHospital)}).
		Where("id <> ?", fromID).
		Order("name ASC").
		Find(&orgs)
	if result.Error != nil {
		return nil, ncerrors.ErrorFromGormError(result.Error)
	}
	return orgs, nil
}

func (s *OrganizationStore) UpdateStatus(ctx context.Context, id uuid.UUID, status api.OrgStatus) error {
	result := s.db.WithContext(ctx).Model(&model.Organization{}).
		Where("id = ?", id).
		Update("status", string(status))
	if result.Error != nil {
		return ncerrors.ErrorFromGormError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ncerrors.ErrOrganizationNotFound
	}
	return nil
}
