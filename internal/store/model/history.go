package model

import (
	"github.com/google/uuid"
)

// History is the append-only audit trail: one row per unit per action.
// Rows are never mutated or deleted; replayed in order they reconstruct a
// unit's current status and owner exactly.
type History struct {
	Resource
	VirtualCodeID uuid.UUID    `gorm:"type:uuid;index"`
	VirtualCode   *VirtualCode `gorm:"foreignKey:VirtualCodeID"`
	ActionType    string       `gorm:"type:string;index"`

	FromOrgID     *uuid.UUID `gorm:"type:uuid;index"`
	FromPatientID *uuid.UUID `gorm:"type:uuid"`
	ToOrgID       *uuid.UUID `gorm:"type:uuid;index"`
	ToPatientID   *uuid.UUID `gorm:"type:uuid"`

	ShipmentBatchID *uuid.UUID `gorm:"type:uuid;index"`
	TreatmentID     *uuid.UUID `gorm:"type:uuid;index"`
	DisposalID      *uuid.UUID `gorm:"type:uuid;index"`

	IsRecall     bool    `gorm:"index"`
	RecallReason *string `gorm:"type:string"`
}

type NotificationMessage struct {
	Resource
	OrganizationID    uuid.UUID  `gorm:"type:uuid;index"`
	PatientID         *uuid.UUID `gorm:"type:uuid"`
	TemplateCode      string     `gorm:"type:string"`
	Phone             string     `gorm:"type:string"`
	Variables         string     `gorm:"type:text"`
	Status            string     `gorm:"type:string;index"`
	ProviderMessageID *string    `gorm:"type:string;index"`
	ErrorMessage      *string    `gorm:"type:string"`
	SentAt            *string    `gorm:"type:string"`
}
