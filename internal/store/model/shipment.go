package model

import (
	"time"

	"github.com/google/uuid"
)

// ShipmentBatch is one outbound transfer event between two organizations.
// Its member units are fixed at creation (ShipmentDetail rows); a return
// spins off a new batch referencing this one as parent and never mutates
// the membership here.
type ShipmentBatch struct {
	Resource
	FromOrganizationID uuid.UUID `gorm:"type:uuid;index"`
	ToOrganizationID   uuid.UUID `gorm:"type:uuid;index"`
	ToOrganizationType string    `gorm:"type:string"`
	ShipmentDate       time.Time `gorm:"index"`

	// Shared finalized flag: set by recall and by return alike. Once set
	// the batch accepts no further reversal.
	IsRecalled   bool
	RecallReason *string `gorm:"type:string"`
	RecallDate   *time.Time

	IsReturnBatch bool
	ParentBatchID *uuid.UUID `gorm:"type:uuid;index"`
}

type ShipmentDetail struct {
	Resource
	ShipmentBatchID uuid.UUID    `gorm:"type:uuid;index"`
	VirtualCodeID   uuid.UUID    `gorm:"type:uuid;index"`
	VirtualCode     *VirtualCode `gorm:"foreignKey:VirtualCodeID"`
}

type TreatmentRecord struct {
	Resource
	HospitalID    uuid.UUID `gorm:"type:uuid;index"`
	PatientID     uuid.UUID `gorm:"type:uuid;index"`
	TreatmentDate string    `gorm:"type:string;index"`
	IsRecalled    bool
}

type TreatmentDetail struct {
	Resource
	TreatmentID   uuid.UUID    `gorm:"type:uuid;index"`
	VirtualCodeID uuid.UUID    `gorm:"type:uuid;index"`
	VirtualCode   *VirtualCode `gorm:"foreignKey:VirtualCodeID"`
}

type DisposalRecord struct {
	Resource
	HospitalID           uuid.UUID `gorm:"type:uuid;index"`
	DisposalDate         string    `gorm:"type:string"`
	DisposalReasonType   string    `gorm:"type:string"`
	DisposalReasonCustom *string   `gorm:"type:string"`
}

type DisposalDetail struct {
	Resource
	DisposalID    uuid.UUID `gorm:"type:uuid;index"`
	VirtualCodeID uuid.UUID `gorm:"type:uuid;index"`
}
