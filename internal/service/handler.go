// Package service implements the business operations of the ledger. Every
// operation validates its input, delegates the transactional work to the
// store, and reports its outcome as an api.Status.
package service

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
	"github.com/sirupsen/logrus"

	api "github.com/neocertify/neocertify/internal/api/v1"
	"github.com/neocertify/neocertify/internal/ncerrors"
	"github.com/neocertify/neocertify/internal/notification"
	"github.com/neocertify/neocertify/internal/signing"
	"github.com/neocertify/neocertify/internal/store"
)

// RecallWindow bounds how long after a shipment or treatment the operation
// can still be reversed.
const RecallWindow = 24 * time.Hour

const orgNameCacheTTL = 5 * time.Minute

type ServiceHandler struct {
	store      store.Store
	signer     *signing.Service
	dispatcher *notification.Dispatcher
	log        logrus.FieldLogger
	validate   *validator.Validate

	orgNames     *ttlcache.Cache[uuid.UUID, string]
	recallWindow time.Duration
}

func NewServiceHandler(st store.Store, signer *signing.Service, dispatcher *notification.Dispatcher, log logrus.FieldLogger) *ServiceHandler {
	cache := ttlcache.New[uuid.UUID, string](
		ttlcache.WithTTL[uuid.UUID, string](orgNameCacheTTL),
	)
	go cache.Start()
	return &ServiceHandler{
		store:        st,
		signer:       signer,
		dispatcher:   dispatcher,
		log:          log,
		validate:     validator.New(),
		orgNames:     cache,
		recallWindow: RecallWindow,
	}
}

func (h *ServiceHandler) validateRequest(req any) *api.Status {
	if err := h.validate.Struct(req); err != nil {
		status := api.StatusBadRequest(api.ReasonValidationError, err.Error())
		return &status
	}
	return nil
}

// StoreErrorToApiStatus translates store-layer errors into the uniform
// status taxonomy.
func StoreErrorToApiStatus(err error) api.Status {
	if err == nil {
		return api.StatusOK()
	}
	if ise, ok := ncerrors.IsInsufficientStock(err); ok {
		return api.StatusConflict(api.ReasonInsufficientStock, ise.Error())
	}
	switch {
	case errors.Is(err, ncerrors.ErrOrganizationNotFound):
		return api.StatusNotFound(api.ReasonOrganizationNotFound, err.Error())
	case errors.Is(err, ncerrors.ErrBatchNotFound):
		return api.StatusNotFound(api.ReasonBatchNotFound, err.Error())
	case errors.Is(err, ncerrors.ErrTreatmentNotFound):
		return api.StatusNotFound(api.ReasonTreatmentNotFound, err.Error())
	case errors.Is(err, ncerrors.ErrProductNotFound):
		return api.StatusNotFound(api.ReasonProductNotFound, err.Error())
	case errors.Is(err, ncerrors.ErrLotNotFound):
		return api.StatusNotFound(api.ReasonLotNotFound, err.Error())
	case errors.Is(err, ncerrors.ErrResourceNotFound):
		return api.StatusNotFound(api.ReasonNotFound, err.Error())
	case errors.Is(err, ncerrors.ErrForbidden):
		return api.StatusForbidden(err.Error())
	case errors.Is(err, ncerrors.ErrRecallWindowExpired):
		return api.StatusForbidden(err.Error())
	case errors.Is(err, ncerrors.ErrAlreadyFinalized):
		return api.StatusConflict(api.ReasonAlreadyFinalized, err.Error())
	case errors.Is(err, ncerrors.ErrStockConflict):
		return api.StatusConflict(api.ReasonInsufficientStock, err.Error())
	case errors.Is(err, ncerrors.ErrDuplicateName), errors.Is(err, ncerrors.ErrValidation):
		return api.StatusBadRequest(api.ReasonValidationError, err.Error())
	default:
		return api.StatusInternalServerError(err.Error())
	}
}
