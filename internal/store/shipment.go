package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	api "github.com/neocertify/neocertify/internal/api/v1"
	"github.com/neocertify/neocertify/internal/ncerrors"
	"github.com/neocertify/neocertify/internal/store/model"
)

type Shipment interface {
	// Process allocates stock FIFO from the sender and transfers it to the
	// destination, all or nothing.
	Process(ctx context.Context, fromOrgID, toOrgID uuid.UUID, items []api.ShipmentItem) (*model.ShipmentBatch, int, error)
	// Recall undoes a whole batch within the recall window. Only the
	// sender may recall, and only once.
	Recall(ctx context.Context, callerOrgID, batchID uuid.UUID, reason string, window time.Duration) (int, error)
	// Return sends units of a received batch back to the sender as a new
	// child batch. Only the receiver may return. A nil items slice returns
	// every unit the receiver still holds from the batch.
	Return(ctx context.Context, callerOrgID, batchID uuid.UUID, reason string, items []api.ShipmentItem) (*model.ShipmentBatch, int, error)
	Get(ctx context.Context, id uuid.UUID) (*model.ShipmentBatch, error)
	List(ctx context.Context, orgID uuid.UUID) ([]model.ShipmentBatch, error)
}

type ShipmentStore struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

func NewShipment(db *gorm.DB, log logrus.FieldLogger) Shipment {
	return &ShipmentStore{db: db, log: log}
}

func (s *ShipmentStore) Process(ctx context.Context, fromOrgID, toOrgID uuid.UUID, items []api.ShipmentItem) (*model.ShipmentBatch, int, error) {
	var batch *model.ShipmentBatch
	var total int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var dest model.Organization
		if err := tx.First(&dest, "id = ?", toOrgID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ncerrors.ErrOrganizationNotFound
			}
			return ncerrors.ErrorFromGormError(err)
		}
		if !dest.IsActive() {
			return ncerrors.ErrOrganizationNotFound
		}

		codes, err := allocate(tx, fromOrgID, items)
		if err != nil {
			return err
		}

		batch = &model.ShipmentBatch{
			FromOrganizationID: fromOrgID,
			ToOrganizationID:   toOrgID,
			ToOrganizationType: dest.Type,
			ShipmentDate:       time.Now(),
		}
		if err := tx.Create(batch).Error; err != nil {
			return ncerrors.ErrorFromGormError(err)
		}
		if err := createDetails(tx, batch.ID, codes); err != nil {
			return err
		}
		if err := claimForOrg(tx, codeIDs(codes), fromOrgID, toOrgID); err != nil {
			return err
		}
		if err := appendHistories(tx, codes, func(code *model.VirtualCode) model.History {
			return model.History{
				VirtualCodeID:   code.ID,
				ActionType:      string(api.ActionShipped),
				FromOrgID:       &fromOrgID,
				ToOrgID:         &toOrgID,
				ShipmentBatchID: &batch.ID,
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
	return batch, total, nil
}

func (s *ShipmentStore) Recall(ctx context.Context, callerOrgID, batchID uuid.UUID, reason string, window time.Duration) (int, error) {
	var recalled int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		batch, err := getBatchForUpdate(tx, batchID)
		if err != nil {
			return err
		}
		if batch.FromOrganizationID != callerOrgID {
			return ncerrors.ErrForbidden
		}
		if batch.IsRecalled {
			return ncerrors.ErrAlreadyFinalized
		}
		if time.Since(batch.ShipmentDate) > window {
			return ncerrors.ErrRecallWindowExpired
		}

		codes, err := batchMembersInStock(tx, batch, nil)
		if err != nil {
			return err
		}
		if len(codes) > 0 {
			if err := claimForOrg(tx, codeIDs(codes), batch.ToOrganizationID, batch.FromOrganizationID); err != nil {
				return err
			}
			if err := appendHistories(tx, codes, func(code *model.VirtualCode) model.History {
				return model.History{
					VirtualCodeID:   code.ID,
					ActionType:      string(api.ActionReturned),
					FromOrgID:       &batch.ToOrganizationID,
					ToOrgID:         &batch.FromOrganizationID,
					ShipmentBatchID: &batch.ID,
					IsRecall:        true,
					RecallReason:    &reason,
				}
			}); err != nil {
				return err
			}
		}
		if err := finalizeBatch(tx, batch, reason); err != nil {
			return err
		}
		recalled = len(codes)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return recalled, nil
}

func (s *ShipmentStore) Return(ctx context.Context, callerOrgID, batchID uuid.UUID, reason string, items []api.ShipmentItem) (*model.ShipmentBatch, int, error) {
	var newBatch *model.ShipmentBatch
	var returned int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		batch, err := getBatchForUpdate(tx, batchID)
		if err != nil {
			return err
		}
		if batch.ToOrganizationID != callerOrgID {
			return ncerrors.ErrForbidden
		}
		if batch.IsRecalled {
			return ncerrors.ErrAlreadyFinalized
		}

		codes, err := batchMembersInStock(tx, batch, items)
		if err != nil {
			return err
		}
		if len(codes) == 0 {
			return ncerrors.ErrValidation
		}

		var sender model.Organization
		if err := tx.First(&sender, "id = ?", batch.FromOrganizationID).Error; err != nil {
			return ncerrors.ErrorFromGormError(err)
		}

		newBatch = &model.ShipmentBatch{
			FromOrganizationID: batch.ToOrganizationID,
			ToOrganizationID:   batch.FromOrganizationID,
			ToOrganizationType: sender.Type,
			ShipmentDate:       time.Now(),
			IsReturnBatch:      true,
			ParentBatchID:      &batch.ID,
		}
		if err := tx.Create(newBatch).Error; err != nil {
			return ncerrors.ErrorFromGormError(err)
		}
		if err := createDetails(tx, newBatch.ID, codes); err != nil {
			return err
		}
		if err := claimForOrg(tx, codeIDs(codes), batch.ToOrganizationID, batch.FromOrganizationID); err != nil {
			return err
		}
		if err := appendHistories(tx, codes, func(code *model.VirtualCode) model.History {
			return model.History{
				VirtualCodeID:   code.ID,
				ActionType:      string(api.ActionReturned),
				FromOrgID:       &batch.ToOrganizationID,
				ToOrgID:         &batch.FromOrganizationID,
				ShipmentBatchID: &newBatch.ID,
				RecallReason:    &reason,
			}
		}); err != nil {
			return err
		}
		if err := finalizeBatch(tx, batch, reason); err != nil {
			return err
		}
		returned = len(codes)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return newBatch, returned, nil
}

func (s *ShipmentStore) Get(ctx context.Context, id uuid.UUID) (*model.ShipmentBatch, error) {
	var batch model.ShipmentBatch
	result := s.db.WithContext(ctx).First(&batch, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ncerrors.ErrBatchNotFound
		}
		return nil, ncerrors.ErrorFromGormError(result.Error)
	}
	return &batch, nil
}

func (s *ShipmentStore) List(ctx context.Context, orgID uuid.UUID) ([]model.ShipmentBatch, error) {
	var batches []model.ShipmentBatch
	result := s.db.WithContext(ctx).
		Where("from_organization_id = ? OR to_organization_id = ?", orgID, orgID).
		Order("shipment_date DESC, id DESC").
		Find(&batches)
	if result.Error != nil {
		return nil, ncerrors.ErrorFromGormError(result.Error)
	}
	return batches, nil
}

func getBatchForUpdate(tx *gorm.DB, batchID uuid.UUID) (*model.ShipmentBatch, error) {
	query := tx.Model(&model.ShipmentBatch{})
	if tx.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var batch model.ShipmentBatch
	if err := query.First(&batch, "id = ?", batchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ncerrors.ErrBatchNotFound
		}
		return nil, ncerrors.ErrorFromGormError(err)
	}
	return &batch, nil
}

// batchMembersInStock selects the batch's units the receiver still holds.
// With items given it takes per-product quantities FIFO; short stock on
// any line fails the whole selection.
func batchMembersInStock(tx *gorm.DB, batch *model.ShipmentBatch, items []api.ShipmentItem) ([]model.VirtualCode, error) {
	base := func() *gorm.DB {
		q := tx.Model(&model.VirtualCode{}).
			Joins("JOIN shipment_details ON shipment_details.virtual_code_id = virtual_codes.id").
			Joins("JOIN lots ON lots.id = virtual_codes.lot_id").
			Where("shipment_details.shipment_batch_id = ?", batch.ID).
			Where("virtual_codes.owner_org_id = ?", batch.ToOrganizationID).
			Where("virtual_codes.status = ?", string(api.CodeStatusInStock)).
			Order("lots.manufacture_date ASC, virtual_codes.created_at ASC, virtual_codes.id ASC")
		if tx.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{
				Strength: "UPDATE",
				Table:    clause.Table{Name: "virtual_codes"},
			})
		}
		return q
	}

	if len(items) == 0 {
		var codes []model.VirtualCode
		if err := base().Find(&codes).Error; err != nil {
			return nil, ncerrors.ErrorFromGormError(err)
		}
		return codes, nil
	}

	selected := make([]model.VirtualCode, 0)
	for _, item := range items {
		var codes []model.VirtualCode
		if err := base().
			Where("lots.product_id = ?", item.ProductID).
			Limit(item.Quantity).
			Find(&codes).Error; err != nil {
			return nil, ncerrors.ErrorFromGormError(err)
		}
		if len(codes) < item.Quantity {
			return nil, &ncerrors.InsufficientStockError{
				ProductID: item.ProductID.String(),
				Requested: item.Quantity,
				Available: len(codes),
			}
		}
		selected = append(selected, codes...)
	}
	return selected, nil
}

func createDetails(tx *gorm.DB, batchID uuid.UUID, codes []model.VirtualCode) error {
	details := lo.Map(codes, func(code model.VirtualCode, _ int) model.ShipmentDetail {
		return model.ShipmentDetail{ShipmentBatchID: batchID, VirtualCodeID: code.ID}
	})
	if err := tx.Create(&details).Error; err != nil {
		return ncerrors.ErrorFromGormError(err)
	}
	return nil
}

func finalizeBatch(tx *gorm.DB, batch *model.ShipmentBatch, reason string) error {
	now := time.Now()
	result := tx.Model(&model.ShipmentBatch{}).
		Where("id = ? AND is_recalled = ?", batch.ID, false).
		Updates(map[string]interface{}{
			"is_recalled":   true,
			"recall_reason": reason,
			"recall_date":   now,
		})
	if result.Error != nil {
		return ncerrors.ErrorFromGormError(result.Error)
	}
	if result.RowsAffected != 1 {
		return ncerrors.ErrAlreadyFinalized
	}
	return nil
}
