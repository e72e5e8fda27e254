package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	api "github.com/neocertify/neocertify/internal/api/v1"
	"github.com/neocertify/neocertify/internal/ncerrors"
	"github.com/neocertify/neocertify/internal/store/model"
)

type Treatment interface {
	// Process allocates the hospital's stock FIFO and hands the units to
	// the patient identified by phone, creating the patient on first
	// contact. The phone must already be normalized.
	Process(ctx context.Context, hospitalID uuid.UUID, patientPhone, treatmentDate string, items []api.ShipmentItem) (*model.TreatmentRecord, int, error)
	// Recall reverses a treatment within the recall window, moving the
	// units back into the hospital's stock.
	Recall(ctx context.Context, callerOrgID, treatmentID uuid.UUID, reason string, window time.Duration) (int, error)
	Get(ctx context.Context, id uuid.UUID) (*model.TreatmentRecord, error)
	// GetDetailForCode returns the treatment a unit was used in, if any.
	GetDetailForCode(ctx context.Context, codeID uuid.UUID) (*model.TreatmentRecord, *model.Organization, error)
	ListByPatientPhone(ctx context.Context, patientPhone string, limit int) ([]model.TreatmentRecord, error)
}

type TreatmentStore struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

func NewTreatment(db *gorm.DB, log logrus.FieldLogger) Treatment {
	return &TreatmentStore{db: db, log: log}
}

func (s *TreatmentStore) Process(ctx context.Context, hospitalID uuid.UUID, patientPhone, treatmentDate string, items []api.ShipmentItem) (*model.TreatmentRecord, int, error) {
	var record *model.TreatmentRecord
	var total int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		patient := model.Patient{PhoneNumber: patientPhone}
		if err := tx.Where("phone_number = ?", patientPhone).FirstOrCreate(&patient).Error; err != nil {
			return ncerrors.ErrorFromGormError(err)
		}

		codes, err := allocate(tx, hospitalID, items)
		if err != nil {
			return err
		}

		record = &model.TreatmentRecord{
			HospitalID:    hospitalID,
			PatientID:     patient.ID,
			TreatmentDate: treatmentDate,
		}
		if err := tx.Create(record).Error; err != nil {
			return ncerrors.ErrorFromGormError(err)
		}
		details := make([]model.TreatmentDetail, len(codes))
		for i := range codes {
			details[i] = model.TreatmentDetail{TreatmentID: record.ID, VirtualCodeID: codes[i].ID}
		}
		if err := tx.Create(&details).Error; err != nil {
			return ncerrors.ErrorFromGormError(err)
		}

		if err := claimForPatient(tx, codeIDs(codes), hospitalID, patient.ID); err != nil {
			return err
		}
		if err := appendHistories(tx, codes, func(code *model.VirtualCode) model.History {
			return model.History{
				VirtualCodeID: code.ID,
				ActionType:    string(api.ActionTreated),
				FromOrgID:     &hospitalID,
				ToPatientID:   &patient.ID,
				TreatmentID:   &record.ID,
			}
		}); err != nil {
			return err
		}

		known := model.HospitalKnownPatient{HospitalID: hospitalID, PatientID: patient.ID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&known).Error; err != nil {
			return ncerrors.ErrorFromGormError(err)
		}

		total = len(codes)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return record, total, nil
}

func (s *TreatmentStore) Recall(ctx context.Context, callerOrgID, treatmentID uuid.UUID, reason string, window time.Duration) (int, error) {
	var recalled int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record model.TreatmentRecord
		query := tx.Model(&model.TreatmentRecord{})
		if tx.Dialector.Name() == "postgres" {
			query = query.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := query.First(&record, "id = ?", treatmentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ncerrors.ErrTreatmentNotFound
			}
			return ncerrors.ErrorFromGormError(err)
		}
		if record.HospitalID != callerOrgID {
			return ncerrors.ErrForbidden
		}
		if record.IsRecalled {
			return ncerrors.ErrAlreadyFinalized
		}
		if time.Since(record.CreatedAt) > window {
			return ncerrors.ErrRecallWindowExpired
		}

		var codes []model.VirtualCode
		if err := tx.Model(&model.VirtualCode{}).
			Joins("JOIN treatment_details ON treatment_details.virtual_code_id = virtual_codes.id").
			Where("treatment_details.treatment_id = ?", record.ID).
			Where("virtual_codes.status = ?", string(api.CodeStatusUsed)).
			Where("virtual_codes.owner_patient_id = ?", record.PatientID).
			Find(&codes).Error; err != nil {
			return ncerrors.ErrorFromGormError(err)
		}

		if len(codes) > 0 {
			result := tx.Model(&model.VirtualCode{}).
				Where("id IN ?", codeIDs(codes)).
				Where("status = ?", string(api.CodeStatusUsed)).
				Where("owner_patient_id = ?", record.PatientID).
				Updates(map[string]interface{}{
					"status":           string(api.CodeStatusInStock),
					"owner_org_id":     record.HospitalID,
					"owner_patient_id": nil,
					"updated_at":       time.Now(),
				})
			if result.Error != nil {
				return ncerrors.ErrorFromGormError(result.Error)
			}
			if result.RowsAffected != int64(len(codes)) {
				return ncerrors.ErrStockConflict
			}
			if err := appendHistories(tx, codes, func(code *model.VirtualCode) model.History {
				return model.History{
					VirtualCodeID: code.ID,
					ActionType:    string(api.ActionRecallTreated),
					FromPatientID: &record.PatientID,
					ToOrgID:       &record.HospitalID,
					TreatmentID:   &record.ID,
					IsRecall:      true,
					RecallReason:  &reason,
				}
			}); err != nil {
				return err
			}
		}

		result := tx.Model(&model.TreatmentRecord{}).
			Where("id = ? AND is_recalled = ?", record.ID, false).
			Update("is_recalled", true)
		if result.Error != nil {
			return ncerrors.ErrorFromGormError(result.Error)
		}
		if result.RowsAffected != 1 {
			return ncerrors.ErrAlreadyFinalized
		}
		recalled = len(codes)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return recalled, nil
}

func (s *TreatmentStore) Get(ctx context.Context, id uuid.UUID) (*model.TreatmentRecord, error) {
	var record model.TreatmentRecord
	result := s.db.WithContext(ctx).First(&record, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ncerrors.ErrTreatmentNotFound
		}
		return nil, ncerrors.ErrorFromGormError(result.Error)
	}
	return &record, nil
}

func (s *TreatmentStore) GetDetailForCode(ctx context.Context, codeID uuid.UUID) (*model.TreatmentRecord, *model.Organization, error) {
	var record model.TreatmentRecord
	result := s.db.WithContext(ctx).Model(&model.TreatmentRecord{}).
		Joins("JOIN treatment_details ON treatment_details.treatment_id = treatment_records.id").
		Where("treatment_details.virtual_code_id = ?", codeID).
		Where("treatment_records.is_recalled = ?", false).
		Order("treatment_records.created_at DESC").
		First(&record)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil, ncerrors.ErrTreatmentNotFound
		}
		return nil, nil, ncerrors.ErrorFromGormError(result.Error)
	}
	var hospital model.Organization
	if err := s.db.WithContext(ctx).First(&hospital, "id = ?", record.HospitalID).Error; err != nil {
		return nil, nil, ncerrors.ErrorFromGormError(err)
	}
	return &record, &hospital, nil
}

func (s *TreatmentStore) ListByPatientPhone(ctx context.Context, patientPhone string, limit int) ([]model.TreatmentRecord, error) {
	var records []model.TreatmentRecord
	query := s.db.WithContext(ctx).Model(&model.TreatmentRecord{}).
		Joins("JOIN patients ON patients.id = treatment_records.patient_id").
		Where("patients.phone_number = ?", patientPhone).
		Where("treatment_records.is_recalled = ?", false).
		Order("treatment_records.treatment_date DESC, treatment_records.created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, ncerrors.ErrorFromGormError(err)
	}
	return records, nil
}

// claimForPatient moves units from a hospital's stock to a patient,
// marking them USED. Conditional on current ownership, like claimForOrg.
func claimForPatient(tx *gorm.DB, ids []uuid.UUID, hospitalID, patientID uuid.UUID) error {
	result := tx.Model(&model.VirtualCode{}).
		Where("id IN ?", ids).
		Where("status = ?", string(api.CodeStatusInStock)).
		Where("owner_org_id = ?", hospitalID).
		Updates(map[string]interface{}{
			"status":           string(api.CodeStatusUsed),
			"owner_org_id":     nil,
			"owner_patient_id": patientID,
			"updated_at":       time.Now(),
		})
	if result.Error != nil {
		return ncerrors.ErrorFromGormError(result.Error)
	}
	if result.RowsAffected != int64(len(ids)) {
		return ncerrors.ErrStockConflict
	}
	return nil
}
