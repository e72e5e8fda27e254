// Package v1 holds the JSON-shaped request and response contracts of the
// neocertify service layer.
package v1

import (
	"time"

	"github.com/google/uuid"
)

type OrgType string

const (
	OrgTypeManufacturer OrgType = "MANUFACTURER"
	OrgTypeDistributor  OrgType = "DISTRIBUTOR"
	OrgTypeHospital     OrgType = "HOSPITAL"
	OrgTypeAdmin        OrgType = "ADMIN"
)

type OrgStatus string

const (
	OrgStatusPendingApproval OrgStatus = "PENDING_APPROVAL"
	OrgStatusActive          OrgStatus = "ACTIVE"
	OrgStatusSuspended       OrgStatus = "SUSPENDED"
	OrgStatusRejected        OrgStatus = "REJECTED"
)

type CodeStatus string

const (
	CodeStatusInStock  CodeStatus = "IN_STOCK"
	CodeStatusUsed     CodeStatus = "USED"
	CodeStatusDisposed CodeStatus = "DISPOSED"
)

type ActionType string

const (
	ActionManufactured  ActionType = "MANUFACTURED"
	ActionShipped       ActionType = "SHIPPED"
	ActionReceived      ActionType = "RECEIVED"
	ActionTreated       ActionType = "TREATED"
	ActionDisposed      ActionType = "DISPOSED"
	ActionReturned      ActionType = "RETURNED"
	ActionRecallTreated ActionType = "RECALL_TREATED"
)

type DisposalReason string

const (
	DisposalReasonExpired   DisposalReason = "EXPIRED"
	DisposalReasonDamaged   DisposalReason = "DAMAGED"
	DisposalReasonDefective DisposalReason = "DEFECTIVE"
	DisposalReasonOther     DisposalReason = "OTHER"
)

type DeactivationReason string

const (
	DeactivationDiscontinued DeactivationReason = "DISCONTINUED"
	DeactivationSafetyIssue  DeactivationReason = "SAFETY_ISSUE"
	DeactivationOther        DeactivationReason = "OTHER"
)

type MessageStatus string

const (
	MessageStatusPending MessageStatus = "PENDING"
	MessageStatusSent    MessageStatus = "SENT"
	MessageStatusFailed  MessageStatus = "FAILED"
)

type OwnerType string

const (
	OwnerTypeOrganization OwnerType = "ORGANIZATION"
	OwnerTypePatient      OwnerType = "PATIENT"
)

// Owner identifies the holder of a unit: an organization or a patient,
// never both.
type Owner struct {
	Type OwnerType `json:"type"`
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name,omitempty"`
}

// ShipmentItem is one (product, quantity) line of an outbound request.
type ShipmentItem struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0,lte=100000"`
}

type CreateShipmentRequest struct {
	ToOrganizationID uuid.UUID      `json:"toOrganizationId" validate:"required"`
	Items            []ShipmentItem `json:"items" validate:"required,min=1,dive"`
}

type CreateShipmentResult struct {
	ShipmentBatchID uuid.UUID `json:"shipmentBatchId"`
	TotalQuantity   int       `json:"totalQuantity"`
}

type CreateTreatmentRequest struct {
	PatientPhone  string         `json:"patientPhone" validate:"required"`
	TreatmentDate string         `json:"treatmentDate" validate:"required,datetime=2006-01-02"`
	Items         []ShipmentItem `json:"items" validate:"required,min=1,dive"`
}

type CreateTreatmentResult struct {
	TreatmentID   uuid.UUID `json:"treatmentId"`
	TotalQuantity int       `json:"totalQuantity"`
}

type CreateDisposalRequest struct {
	DisposalDate       string         `json:"disposalDate" validate:"required,datetime=2006-01-02"`
	ReasonType         DisposalReason `json:"reasonType" validate:"required,oneof=EXPIRED DAMAGED DEFECTIVE OTHER"`
	ReasonCustom       string         `json:"reasonCustom,omitempty"`
	Items              []ShipmentItem `json:"items" validate:"required,min=1,dive"`
}

type CreateDisposalResult struct {
	DisposalID    uuid.UUID `json:"disposalId"`
	TotalQuantity int       `json:"totalQuantity"`
}

type RecallShipmentRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type ReturnShipmentRequest struct {
	Reason            string         `json:"reason" validate:"required"`
	ProductQuantities []ShipmentItem `json:"productQuantities,omitempty" validate:"omitempty,dive"`
}

type ReturnShipmentResult struct {
	NewBatchID    uuid.UUID `json:"newBatchId"`
	ReturnedCount int       `json:"returnedCount"`
}

type RecallTreatmentRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// HistoryQuery selects audit events for one organization with an optional
// descending (time, id) cursor.
type HistoryQuery struct {
	ActionTypes []ActionType `json:"actionTypes,omitempty"`
	StartDate   string       `json:"startDate,omitempty"`
	EndDate     string       `json:"endDate,omitempty"`
	IsRecall    *bool        `json:"isRecall,omitempty"`
	Limit       int          `json:"limit,omitempty"`
	CursorTime  *time.Time   `json:"cursorTime,omitempty"`
	CursorKey   *uuid.UUID   `json:"cursorKey,omitempty"`
}

// HistoryItem is one per-product line of a grouped history summary.
type HistoryItem struct {
	ProductID   uuid.UUID `json:"productId"`
	ProductName string    `json:"productName"`
	Quantity    int       `json:"quantity"`
}

// HistorySummary is one logical operation: all unit events sharing action
// type, timestamp, counterparties and originating record, merged with a
// per-product quantity breakdown.
type HistorySummary struct {
	ID              uuid.UUID     `json:"id"`
	ActionType      ActionType    `json:"actionType"`
	CreatedAt       time.Time     `json:"createdAt"`
	IsRecall        bool          `json:"isRecall"`
	RecallReason    string        `json:"recallReason,omitempty"`
	FromOwner       *Owner        `json:"fromOwner,omitempty"`
	ToOwner         *Owner        `json:"toOwner,omitempty"`
	Items           []HistoryItem `json:"items"`
	TotalQuantity   int           `json:"totalQuantity"`
	ShipmentBatchID *uuid.UUID    `json:"shipmentBatchId,omitempty"`
}

type HistoryPage struct {
	Items          []HistorySummary `json:"items"`
	HasMore        bool             `json:"hasMore"`
	NextCursorTime *time.Time       `json:"nextCursorTime,omitempty"`
	NextCursorKey  *uuid.UUID       `json:"nextCursorKey,omitempty"`
}

type RegisterOrganizationRequest struct {
	Type           OrgType `json:"type" validate:"required,oneof=MANUFACTURER DISTRIBUTOR HOSPITAL"`
	Name           string  `json:"name" validate:"required,max=200"`
	Email          string  `json:"email" validate:"required,email"`
	BusinessNumber string  `json:"businessNumber" validate:"required,max=20"`
	Address        string  `json:"address" validate:"max=500"`
}

type Organization struct {
	ID             uuid.UUID `json:"id"`
	Type           OrgType   `json:"type"`
	Name           string    `json:"name"`
	Email          string    `json:"email,omitempty"`
	BusinessNumber string    `json:"businessNumber,omitempty"`
	Address        string    `json:"address,omitempty"`
	Status         OrgStatus `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
}

// PatientMatch is one autocomplete hit for a hospital's patient search.
type PatientMatch struct {
	ID    uuid.UUID `json:"id"`
	Phone string    `json:"phone"`
}

type CreateProductRequest struct {
	Name      string `json:"name" validate:"required,max=200"`
	UdiDi     string `json:"udiDi" validate:"required,max=100"`
	ModelName string `json:"modelName" validate:"required,max=200"`
}

type Product struct {
	ID                 uuid.UUID           `json:"id"`
	OrganizationID     uuid.UUID           `json:"organizationId"`
	Name               string              `json:"name"`
	UdiDi              string              `json:"udiDi"`
	ModelName          string              `json:"modelName"`
	IsActive           bool                `json:"isActive"`
	DeactivationReason *DeactivationReason `json:"deactivationReason,omitempty"`
	CreatedAt          time.Time           `json:"createdAt"`
}

type CreateLotRequest struct {
	ProductID       uuid.UUID `json:"productId" validate:"required"`
	LotNumber       string    `json:"lotNumber" validate:"required,max=100"`
	Quantity        int       `json:"quantity" validate:"required,gt=0,lte=100000"`
	ManufactureDate string    `json:"manufactureDate" validate:"required,datetime=2006-01-02"`
	ExpiryDate      string    `json:"expiryDate" validate:"required,datetime=2006-01-02"`
}

type CreateLotResult struct {
	LotID         uuid.UUID `json:"lotId"`
	TotalQuantity int       `json:"totalQuantity"`
}

type InventorySummary struct {
	ProductID     uuid.UUID `json:"productId"`
	ProductName   string    `json:"productName"`
	ModelName     string    `json:"modelName"`
	UdiDi         string    `json:"udiDi"`
	TotalQuantity int       `json:"totalQuantity"`
}

type LotInventory struct {
	LotID           uuid.UUID `json:"lotId"`
	LotNumber       string    `json:"lotNumber"`
	ManufactureDate string    `json:"manufactureDate"`
	ExpiryDate      string    `json:"expiryDate"`
	Quantity        int       `json:"quantity"`
}

// VerifyResult is the public verification response for one signed code.
type VerifyResult struct {
	Verified  bool             `json:"verified"`
	Code      string           `json:"code"`
	Status    CodeStatus       `json:"status"`
	CreatedAt time.Time        `json:"createdAt"`
	Treatment *TreatmentDetail `json:"treatment,omitempty"`
}

type TreatmentDetail struct {
	TreatmentDate string `json:"treatmentDate"`
	HospitalName  string `json:"hospitalName"`
}

// InquiryRecord is one public treatment-history line, matched by patient
// phone or by code.
type InquiryRecord struct {
	Code          string     `json:"code,omitempty"`
	Status        CodeStatus `json:"status,omitempty"`
	TreatmentDate string     `json:"treatmentDate,omitempty"`
	HospitalName  string     `json:"hospitalName,omitempty"`
}

// MessageStatusUpdate is one entry of the notification provider's delivery
// callback.
type MessageStatusUpdate struct {
	ProviderMessageID string `json:"mid"`
	Succeeded         bool   `json:"succeeded"`
	SentAt            string `json:"sentAt,omitempty"`
	ErrorMessage      string `json:"errorMessage,omitempty"`
}
