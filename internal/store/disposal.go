package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	api "github.com/neocertify/neocertify/internal/api/v1"
	"github.com/neocertify/neocertify/internal/ncerrors"
	"github.com/neocertify/neocertify/internal/store/model"
)

type Disposal interface {
	// Process allocates the organization's stock FIFO and marks the units
	// DISPOSED. Disposal is terminal; the units never re-enter stock.
	Process(ctx context.Context, orgID uuid.UUID, disposalDate string, reasonType api.DisposalReason, reasonCustom string, items []api.ShipmentItem) (*model.DisposalRecord, int, error)
	List(ctx context.Context, orgID uuid.UUID) ([]model.DisposalRecord, error)
}

type DisposalStore struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

func NewDisposal(db *gorm.DB, log logrus.FieldLogger) Disposal {
	return &DisposalStore{db: db, log: log}
}

func (s *DisposalStore) Process(ctx context.Context, orgID uuid.UUID, disposalDate string, reasonType api.DisposalReason, reasonCustom string, items []api.ShipmentItem) (*model.DisposalRecord, int, error) {
	var record *model.DisposalRecord
	var total int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		codes, err := allocate(tx, orgID, items)
		if err != nil {
			return err
		}

		record = &model.DisposalRecord{
			HospitalID:         orgID,
			DisposalDate:       disposalDate,
			DisposalReasonType: string(reasonType),
		}
		if reasonCustom != "" {
			record.DisposalReasonCustom = &reasonCustom
		}
		if err := tx.Create(record).Error; err != nil {
			return ncerrors.ErrorFromGormError(err)
		}
		details := make([]model.DisposalDetail, len(codes))
		for i := range codes {
			details[i] = model.DisposalDetail{DisposalID: record.ID, VirtualCodeID: codes[i].ID}
		}
		if err := tx.Create(&details).Error; err != nil {
			return ncerrors.ErrorFromGormError(err)
		}

		// The last owner stays on the row for audit; only the status
		// changes.
		result := tx.Model(&model.VirtualCode{}).
			Where("id IN ?", codeIDs(codes)).
			Where("status = ?", string(api.CodeStatusInStock)).
			Where("owner_org_id = ?", orgID).
			Updates(map[string]interface{}{
				"status":     string(api.CodeStatusDisposed),
				"updated_at": time.Now(),
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
				ActionType:    string(api.ActionDisposed),
				FromOrgID:     &orgID,
				DisposalID:    &record.ID,
			}
		}); err != nil {
			return err
		}

		total = len(codes)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return record, total, nil
}

func (s *DisposalStore) List(ctx context.Context, orgID uuid.UUID) ([]model.DisposalRecord, error) {
	var records []model.DisposalRecord
	result := s.db.WithContext(ctx).
		Where("hospital_id = ?", orgID).
		Order("created_at DESC").
		Find(&records)
	if result.Error != nil {
		return nil, ncerrors.ErrorFromGormError(result.Error)
	}
	return records, nil
}
