package ncerrors

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrResourceIsNil       = errors.New("object is nil")
	ErrResourceNotFound    = errors.New("object not found")
	ErrDuplicateName       = errors.New("an object with this name already exists")
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrBatchNotFound       = errors.New("shipment batch not found")
	ErrTreatmentNotFound   = errors.New("treatment record not found")
	ErrProductNotFound     = errors.New("product not found")
	ErrLotNotFound         = errors.New("lot not found")
	ErrForbidden           = errors.New("caller is not authorized for this operation")
	ErrAlreadyFinalized    = errors.New("shipment batch already recalled or returned")
	ErrRecallWindowExpired = errors.New("recall window of 24 hours has elapsed")
	ErrSignatureInvalid    = errors.New("code signature is invalid")
	ErrValidation          = errors.New("validation failed")
	ErrStockConflict       = errors.New("unit ownership changed by a concurrent transaction")
)

// InsufficientStockError names the first product that could not be fully
// allocated and how far the stock fell short.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d", e.ProductID, e.Requested, e.Available)
}

func IsInsufficientStock(err error) (*InsufficientStockError, bool) {
	var ise *InsufficientStockError
	if errors.As(err, &ise) {
		return ise, true
	}
	return nil, false
}

func ErrorFromGormError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrResourceNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateName
	default:
		return err
	}
}
