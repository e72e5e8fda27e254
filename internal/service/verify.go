package service

import (
	"context"

	api "github.com/neocertify/neocertify/internal/api/v1"
	"github.com/neocertify/neocertify/internal/instrumentation"
	"github.com/neocertify/neocertify/internal/util"
)

// Verify checks a public verification token. Malformed tokens, bad
// signatures and unknown serials all collapse into the same NOT_FOUND
// response so the endpoint leaks nothing about which codes exist.
func (h *ServiceHandler) Verify(ctx context.Context, token string) (*api.VerifyResult, api.Status) {
	valid, serial := h.signer.VerifySignedCode(token)
	if !valid {
		instrumentation.VerificationRequests.WithLabelValues("rejected").Inc()
		return nil, api.StatusNotFound(api.ReasonNotFound, "code not found")
	}

	code, err := h.store.Code().GetBySerial(ctx, serial)
	if err != nil {
		instrumentation.VerificationRequests.WithLabelValues("unknown").Inc()
		return nil, api.StatusNotFound(api.ReasonNotFound, "code not found")
	}

	result := &api.VerifyResult{
		Verified:  true,
		Code:      code.Code,
		Status:    api.CodeStatus(code.Status),
		CreatedAt: code.CreatedAt,
	}
	if code.Status == string(api.CodeStatusUsed) {
		if record, hospital, derr := h.store.Treatment().GetDetailForCode(ctx, code.ID); derr == nil {
			result.Treatment = &api.TreatmentDetail{
				TreatmentDate: record.TreatmentDate,
				HospitalName:  hospital.Name,
			}
		}
	}

	instrumentation.VerificationRequests.WithLabelValues("verified").Inc()
	return result, api.StatusOK()
}

// Inquiry lists a patient's treatments by phone number. It intentionally
// returns an empty list, not an error, for unknown numbers.
func (h *ServiceHandler) Inquiry(ctx context.Context, patientPhone string) ([]api.InquiryRecord, api.Status) {
	phone, err := util.NormalizePhoneNumber(patientPhone)
	if err != nil {
		return nil, api.StatusBadRequest(api.ReasonValidationError, err.Error())
	}

	records, err := h.store.Treatment().ListByPatientPhone(ctx, phone, 50)
	if err != nil {
		return nil, StoreErrorToApiStatus(err)
	}

	results := make([]api.InquiryRecord, len(records))
	for i := range records {
		results[i] = api.InquiryRecord{
			TreatmentDate: records[i].TreatmentDate,
			HospitalName:  h.orgName(ctx, records[i].HospitalID),
		}
	}
	return results, api.StatusOK()
}

// InquiryByCode resolves a single signed code to its treatment record.
// Invalid signatures, unknown serials and untreated units all yield an
// empty list, matching the phone path's behavior for unknown numbers.
func (h *ServiceHandler) InquiryByCode(ctx context.Context, token string) ([]api.InquiryRecord, api.Status) {
	valid, serial := h.signer.VerifySignedCode(token)
	if !valid {
		return []api.InquiryRecord{}, api.StatusOK()
	}
	code, err := h.store.Code().GetBySerial(ctx, serial)
	if err != nil {
		return []api.InquiryRecord{}, api.StatusOK()
	}
	record, hospital, err := h.store.Treatment().GetDetailForCode(ctx, code.ID)
	if err != nil {
		return []api.InquiryRecord{}, api.StatusOK()
	}
	return []api.InquiryRecord{{
		TreatmentDate: record.TreatmentDate,
		HospitalName:  hospital.Name,
	}}, api.StatusOK()
}
