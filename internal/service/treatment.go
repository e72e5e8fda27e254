package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"

	api "github.com/neocertify/neocertify/internal/api/v1"
	"github.com/neocertify/neocertify/internal/instrumentation"
	"github.com/neocertify/neocertify/internal/notification"
	"github.com/neocertify/neocertify/internal/store/model"
	"github.com/neocertify/neocertify/internal/util"
)

// CreateTreatment allocates the hospital's stock to a patient, creating
// the patient record on first contact. On success a confirmation message
// is dispatched to the patient asynchronously; its delivery never affects
// the outcome here.
func (h *ServiceHandler) CreateTreatment(ctx context.Context, orgID uuid.UUID, req api.CreateTreatmentRequest) (*api.CreateTreatmentResult, api.Status) {
	if status := h.validateRequest(req); status != nil {
		return nil, *status
	}
	caller, err := h.store.Organization().GetActive(ctx, orgID)
	if err != nil {
		return nil, StoreErrorToApiStatus(err)
	}
	if caller.Type != string(api.OrgTypeHospital) {
		return nil, api.StatusForbidden("only hospitals record treatments")
	}

	phone, err := util.NormalizePhoneNumber(req.PatientPhone)
	if err != nil {
		return nil, api.StatusBadRequest(api.ReasonValidationError, err.Error())
	}

	record, total, err := h.store.Treatment().Process(ctx, orgID, phone, req.TreatmentDate, req.Items)
	if err != nil {
		return nil, StoreErrorToApiStatus(err)
	}

	instrumentation.TransferOps.WithLabelValues(string(api.ActionTreated)).Inc()
	instrumentation.TransferUnits.WithLabelValues(string(api.ActionTreated)).Add(float64(total))
	h.log.WithFields(map[string]interface{}{
		"treatment": record.ID,
		"hospital":  orgID,
		"units":     total,
	}).Info("treatment recorded")

	if h.dispatcher != nil {
		h.notifyTreatment(ctx, caller.Name, orgID, record.PatientID, phone, req, total)
	}

	return &api.CreateTreatmentResult{TreatmentID: record.ID, TotalQuantity: total}, api.StatusCreated()
}

// RecallTreatment reverses a treatment within the recall window, returning
// the units to the hospital's stock.
func (h *ServiceHandler) RecallTreatment(ctx context.Context, orgID, treatmentID uuid.UUID, req api.RecallTreatmentRequest) (int, api.Status) {
	if status := h.validateRequest(req); status != nil {
		return 0, *status
	}
	record, err := h.store.Treatment().Get(ctx, treatmentID)
	if err != nil {
		return 0, StoreErrorToApiStatus(err)
	}
	recalled, err := h.store.Treatment().Recall(ctx, orgID, treatmentID, req.Reason, h.recallWindow)
	if err != nil {
		return 0, StoreErrorToApiStatus(err)
	}

	instrumentation.TransferOps.WithLabelValues(string(api.ActionRecallTreated)).Inc()
	instrumentation.TransferUnits.WithLabelValues(string(api.ActionRecallTreated)).Add(float64(recalled))
	h.log.WithFields(map[string]interface{}{
		"treatment": treatmentID,
		"units":     recalled,
	}).Info("treatment recalled")

	if h.dispatcher != nil {
		if patient, perr := h.store.Patient().Get(ctx, record.PatientID); perr == nil {
			err := h.dispatcher.Dispatch(ctx, notification.Message{
				OrganizationID: orgID,
				PatientID:      &record.PatientID,
				TemplateCode:   notification.TemplateTreatmentRecall,
				Phone:          patient.PhoneNumber,
				Variables: map[string]string{
					"hospital": h.orgName(ctx, orgID),
					"date":     record.TreatmentDate,
				},
			})
			if err != nil {
				h.log.WithError(err).Warn("failed to queue recall notification")
			}
		}
	}

	return recalled, api.StatusOK()
}

// SearchPatients matches previously treated patients by phone suffix.
func (h *ServiceHandler) SearchPatients(ctx context.Context, orgID uuid.UUID, phoneSuffix string, limit int) ([]api.PatientMatch, api.Status) {
	suffix := strings.TrimSpace(phoneSuffix)
	if len(suffix) < 4 {
		return nil, api.StatusBadRequest(api.ReasonValidationError, "search needs at least 4 digits")
	}
	patients, err := h.store.Patient().SearchKnown(ctx, orgID, suffix, limit)
	if err != nil {
		return nil, StoreErrorToApiStatus(err)
	}
	results := lo.Map(patients, func(p model.Patient, _ int) api.PatientMatch {
		return api.PatientMatch{ID: p.ID, Phone: p.PhoneNumber}
	})
	return results, api.StatusOK()
}

func (h *ServiceHandler) notifyTreatment(ctx context.Context, hospitalName string, orgID, patientID uuid.UUID, phone string, req api.CreateTreatmentRequest, total int) {
	names := make([]string, 0, len(req.Items))
	for _, item := range req.Items {
		if product, err := h.store.Product().GetByID(ctx, item.ProductID); err == nil {
			names = append(names, product.Name)
		}
	}
	if len(names) == 0 {
		names = append(names, "시술 제품")
	}
	err := h.dispatcher.Dispatch(ctx, notification.Message{
		OrganizationID: orgID,
		PatientID:      &patientID,
		TemplateCode:   notification.TemplateTreatmentConfirmation,
		Phone:          phone,
		Variables: map[string]string{
			"hospital": hospitalName,
			"date":     req.TreatmentDate,
			"products": strings.Join(names, ", "),
			"quantity": fmt.Sprintf("%d", total),
		},
	})
	if err != nil {
		h.log.WithError(err).Warn("failed to queue treatment notification")
	}
}
