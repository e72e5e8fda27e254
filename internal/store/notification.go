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

type Notification interface {
	Create(ctx context.Context, msg *model.NotificationMessage) (*model.NotificationMessage, error)
	Get(ctx context.Context, id uuid.UUID) (*model.NotificationMessage, error)
	MarkSent(ctx context.Context, id uuid.UUID, providerMessageID string) error
	MarkFailed(ctx context.Context, id uuid.UUID, errorMessage string) error
	// UpdateByProviderMessageID applies a delivery callback from the
	// provider. Unknown message ids are ignored.
	UpdateByProviderMessageID(ctx context.Context, update api.MessageStatusUpdate) (bool, error)
}

type NotificationStore struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

func NewNotification(db *gorm.DB, log logrus.FieldLogger) Notification {
	return &NotificationStore{db: db, log: log}
}

func (s *NotificationStore) Create(ctx context.Context, msg *model.NotificationMessage) (*model.NotificationMessage, error) {
	if msg == nil {
		return nil, ncerrors.ErrResourceIsNil
	}
	if msg.Status == "" {
		msg.Status = string(api.MessageStatusPending)
	}
	result := s.db.WithContext(ctx).Create(msg)
	if result.Error != nil {
		return nil, ncerrors.ErrorFromGormError(result.Error)
	}
	return msg, nil
}

func (s *NotificationStore) Get(ctx context.Context, id uuid.UUID) (*model.NotificationMessage, error) {
	var msg model.NotificationMessage
	result := s.db.WithContext(ctx).First(&msg, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ncerrors.ErrResourceNotFound
		}
		return nil, ncerrors.ErrorFromGormError(result.Error)
	}
	return &msg, nil
}

func (s *NotificationStore) MarkSent(ctx context.Context, id uuid.UUID, providerMessageID string) error {
	result := s.db.WithContext(ctx).Model(&model.NotificationMessage{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":              string(api.MessageStatusSent),
			"provider_message_id": providerMessageID,
			"error_message":       nil,
		})
	if result.Error != nil {
		return ncerrors.ErrorFromGormError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ncerrors.ErrResourceNotFound
	}
	return nil
}

func (s *NotificationStore) MarkFailed(ctx context.Context, id uuid.UUID, errorMessage string) error {
	result := s.db.WithContext(ctx).Model(&model.NotificationMessage{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        string(api.MessageStatusFailed),
			"error_message": errorMessage,
		})
	if result.Error != nil {
		return ncerrors.ErrorFromGormError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ncerrors.ErrResourceNotFound
	}
	return nil
}

func (s *NotificationStore) UpdateByProviderMessageID(ctx context.Context, update api.MessageStatusUpdate) (bool, error) {
	status := api.MessageStatusSent
	if !update.Succeeded {
		status = api.MessageStatusFailed
	}
	fields := map[string]interface{}{
		"status": string(status),
	}
	if update.SentAt != "" {
		fields["sent_at"] = update.SentAt
	}
	if update.ErrorMessage != "" {
		fields["error_message"] = update.ErrorMessage
	}
	result := s.db.WithContext(ctx).Model(&model.NotificationMessage{}).
		Where("provider_message_id = ?", update.ProviderMessageID).
		Updates(fields)
	if result.Error != nil {
		return false, ncerrors.ErrorFromGormError(result.Error)
	}
	return result.RowsAffected > 0, nil
}
