package store

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	api "github.com/neocertify/neocertify/internal/api/v1"
	"github.com/neocertify/neocertify/internal/ncerrors"
	"github.com/neocertify/neocertify/internal/store/model"
)

// allocate selects units for transfer out of an organization's stock,
// oldest lot first, oldest unit first within a lot. Candidate rows are
// locked for the duration of the transaction on postgres; sqlite
// serializes writers, so no lock clause is emitted there. The caller
// must still claim the rows with a conditional update.
func allocate(tx *gorm.DB, ownerOrgID uuid.UUID, items []api.ShipmentItem) ([]model.VirtualCode, error) {
	selected := make([]model.VirtualCode, 0)
	for _, item := range items {
		query := tx.Model(&model.VirtualCode{}).
			Joins("JOIN lots ON lots.id = virtual_codes.lot_id").
			Where("virtual_codes.owner_org_id = ?", ownerOrgID).
			Where("virtual_codes.status = ?", string(api.CodeStatusInStock)).
			Where("lots.product_id = ?", item.ProductID).
			Order("lots.manufacture_date ASC, virtual_codes.created_at ASC, virtual_codes.id ASC").
			Limit(item.Quantity)
		if tx.Dialector.Name() == "postgres" {
			query = query.Clauses(clause.Locking{
				Strength: "UPDATE",
				Table:    clause.Table{Name: "virtual_codes"},
			})
		}

		var codes []model.VirtualCode
		if err := query.Find(&codes).Error; err != nil {
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

// claimForOrg transfers ownership of the given units to a new
// organization. The update is conditional on every unit still being in
// stock under the expected owner; a short count means another
// transaction won the race and the whole operation must roll back.
func claimForOrg(tx *gorm.DB, codeIDs []uuid.UUID, fromOrgID, toOrgID uuid.UUID) error {
	result := tx.Model(&model.VirtualCode{}).
		Where("id IN ?", codeIDs).
		Where("status = ?", string(api.CodeStatusInStock)).
		Where("owner_org_id = ?", fromOrgID).
		Updates(map[string]interface{}{
			"owner_org_id":     toOrgID,
			"owner_patient_id": nil,
			"updated_at":       time.Now(),
		})
	if result.Error != nil {
		return ncerrors.ErrorFromGormError(result.Error)
	}
	if result.RowsAffected != int64(len(codeIDs)) {
		return ncerrors.ErrStockConflict
	}
	return nil
}

func codeIDs(codes []model.VirtualCode) []uuid.UUID {
	ids := make([]uuid.UUID, len(codes))
	for i := range codes {
		ids[i] = codes[i].ID
	}
	return ids
}

func appendHistories(tx *gorm.DB, codes []model.VirtualCode, build func(code *model.VirtualCode) model.History) error {
	histories := make([]model.History, len(codes))
	for i := range codes {
		histories[i] = build(&codes[i])
	}
	if len(histories) == 0 {
		return nil
	}
	if err := tx.Create(&histories).Error; err != nil {
		return ncerrors.ErrorFromGormError(err)
	}
	return nil
}
