package v1

import "net/http"

// Reason codes returned to callers. Business-rule violations are reported
// through these, never as panics across the operation boundary.
const (
	ReasonValidationError      = "VALIDATION_ERROR"
	ReasonInsufficientStock    = "INSUFFICIENT_STOCK"
	ReasonOrganizationNotFound = "ORGANIZATION_NOT_FOUND"
	ReasonBatchNotFound        = "BATCH_NOT_FOUND"
	ReasonTreatmentNotFound    = "TREATMENT_NOT_FOUND"
	ReasonProductNotFound      = "PRODUCT_NOT_FOUND"
	ReasonLotNotFound          = "LOT_NOT_FOUND"
	ReasonNotFound             = "NOT_FOUND"
	ReasonForbidden            = "FORBIDDEN"
	ReasonAlreadyFinalized     = "ALREADY_FINALIZED"
	ReasonRateLimited          = "RATE_LIMITED"
	ReasonSignatureInvalid     = "SIGNATURE_INVALID"
	ReasonInternalError        = "INTERNAL_ERROR"
)

// Status reports the outcome of a service operation.
type Status struct {
	Status  string `json:"status"`
	Code    int32  `json:"code"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}

func NewSuccessStatus(code int32) Status {
	return Status{Status: "Success", Code: code}
}

func NewFailureStatus(code int32, reason, message string) Status {
	return Status{Status: "Failure", Code: code, Reason: reason, Message: message}
}

func StatusOK() Status {
	return NewSuccessStatus(http.StatusOK)
}

func StatusCreated() Status {
	return NewSuccessStatus(http.StatusCreated)
}

func StatusBadRequest(reason, message string) Status {
	return NewFailureStatus(http.StatusBadRequest, reason, message)
}

func StatusNotFound(reason, message string) Status {
	return NewFailureStatus(http.StatusNotFound, reason, message)
}

func StatusForbidden(message string) Status {
	return NewFailureStatus(http.StatusForbidden, ReasonForbidden, message)
}

func StatusConflict(reason, message string) Status {
	return NewFailureStatus(http.StatusConflict, reason, message)
}

func StatusTooManyRequests(message string) Status {
	return NewFailureStatus(http.StatusTooManyRequests, ReasonRateLimited, message)
}

func StatusInternalServerError(message string) Status {
	return NewFailureStatus(http.StatusInternalServerError, ReasonInternalError, message)
}
