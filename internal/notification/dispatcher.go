package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/neocertify/neocertify/internal/store"
	"github.com/neocertify/neocertify/internal/store/model"
	"github.com/neocertify/neocertify/pkg/retry"
)

// Template codes registered with the provider.
const (
	TemplateTreatmentConfirmation = "TREATMENT_CONFIRM"
	TemplateTreatmentRecall       = "TREATMENT_RECALL"
)

// Message is one queued notification: a template, its variables, and the
// ledger entities it concerns.
type Message struct {
	OrganizationID uuid.UUID
	PatientID      *uuid.UUID
	TemplateCode   string
	Phone          string
	Variables      map[string]string
}

// Dispatcher persists each message and delivers it in the background with
// retries. Dispatch never blocks the caller on network I/O.
type Dispatcher struct {
	store    store.Store
	provider Provider
	log      logrus.FieldLogger
	retryCfg retry.Config

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewDispatcher(st store.Store, provider Provider, log logrus.FieldLogger, retryCfg retry.Config) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		store:    st,
		provider: provider,
		log:      log,
		retryCfg: retryCfg,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Dispatch records the message and starts background delivery. The record
// write happens synchronously so callers observe a PENDING row; everything
// after is fire and forget.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) error {
	variables, err := json.Marshal(msg.Variables)
	if err != nil {
		return fmt.Errorf("encoding message variables: %w", err)
	}
	row, err := d.store.Notification().Create(ctx, &model.NotificationMessage{
		OrganizationID: msg.OrganizationID,
		PatientID:      msg.PatientID,
		TemplateCode:   msg.TemplateCode,
		Phone:          msg.Phone,
		Variables:      string(variables),
	})
	if err != nil {
		return err
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.deliver(row.ID, SendRequest{
			TemplateCode: msg.TemplateCode,
			Phone:        msg.Phone,
			Message:      renderMessage(msg.TemplateCode, msg.Variables),
		})
	}()
	return nil
}

func (d *Dispatcher) deliver(id uuid.UUID, req SendRequest) {
	log := d.log.WithField("notification", id)

	var mid string
	cfg := d.retryCfg
	if cfg.ShouldRetry == nil {
		cfg.ShouldRetry = func(err error) bool {
			return !errors.Is(err, ErrMissingCredentials)
		}
	}
	err := retry.Do(d.ctx, cfg, func(ctx context.Context) error {
		var sendErr error
		mid, sendErr = d.provider.Send(ctx, req)
		if sendErr != nil {
			log.WithError(sendErr).Warn("notification delivery attempt failed")
		}
		return sendErr
	})
	if err != nil {
		log.WithError(err).Error("notification delivery gave up")
		if markErr := d.store.Notification().MarkFailed(d.ctx, id, err.Error()); markErr != nil {
			log.WithError(markErr).Error("failed to record notification failure")
		}
		return
	}
	if err := d.store.Notification().MarkSent(d.ctx, id, mid); err != nil {
		log.WithError(err).Error("failed to record notification delivery")
	}
}

// Stop cancels in-flight deliveries and waits for their goroutines,
// bounded by the given timeout.
func (d *Dispatcher) Stop(timeout time.Duration) {
	d.cancel()
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		d.log.Warn("timed out waiting for notification deliveries to stop")
	}
}

func renderMessage(templateCode string, vars map[string]string) string {
	switch templateCode {
	case TemplateTreatmentConfirmation:
		return fmt.Sprintf("[%s] %s 시술이 정상 등록되었습니다. 제품: %s (%s개)",
			vars["hospital"], vars["date"], vars["products"], vars["quantity"])
	case TemplateTreatmentRecall:
		return fmt.Sprintf("[%s] %s 시술 등록이 취소되었습니다.",
			vars["hospital"], vars["date"])
	default:
		return vars["message"]
	}
}
