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

type Patient interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
	GetByPhone(ctx context.Context, phone string) (*model.Patient, error)
	// SearchKnown matches patients previously treated at the hospital by
	// phone suffix, for operator autocomplete.
	SearchKnown(ctx context.Context, hospitalID uuid.UUID, phoneSuffix string, limit int) ([]model.Patient, error)
}

type PatientStore struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

func NewPatient(db *gorm.DB, log logrus.FieldLogger) Patient {
	return &PatientStore{db: db, log: log}
}

func (s *PatientStore) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	var patient model.Patient
	result := s.db.WithContext(ctx).First(&patient, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ncerrors.ErrResourceNotFound
		}
		return nil, ncerrors.ErrorFromGormError(result.Error)
	}
	return &patient, nil
}

func (s *PatientStore) GetByPhone(ctx context.Context, phone string) (*model.Patient, error) {
	var patient model.Patient
	result := s.db.WithContext(ctx).First(&patient, "phone_number = ?", phone)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ncerrors.ErrResourceNotFound
		}
		return nil, ncerrors.ErrorFromGormError(result.Error)
	}
	return &patient, nil
}

func (s *PatientStore) SearchKnown(ctx context.Context, hospitalID uuid.UUID, phoneSuffix string, limit int) ([]model.Patient, error) {
	if limit <= 0 {
		limit = 10
	}
	var patients []model.Patient
	result := s.db.WithContext(ctx).Model(&model.Patient{}).
		Joins("JOIN hospital_known_patients ON hospital_known_patients.patient_id = patients.id").
		Where("hospital_known_patients.hospital_id = ?", hospitalID).
		Where("patients.phone_number LIKE ?", "%"+phoneSuffix).
		Order("patients.phone_number ASC").
		Limit(limit).
		Find(&patients)
	if result.Error != nil {
		return nil, ncerrors.ErrorFromGormError(result.Error)
	}
	return patients, nil
}
