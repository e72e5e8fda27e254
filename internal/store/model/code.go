package model

import (
	"fmt"

	"github.com/google/uuid"

	api "github.com/neocertify/neocertify/internal/api/v1"
)

// VirtualCode is one uniquely serialized, trackable device unit. Its owner
// is an organization XOR a patient; status and owner are only ever updated
// together, in the same transaction that appends the unit's history row.
type VirtualCode struct {
	Resource
	Code           string     `gorm:"type:string;uniqueIndex"`
	LotID          uuid.UUID  `gorm:"type:uuid;index"`
	Lot            *Lot       `gorm:"foreignKey:LotID"`
	Status         string     `gorm:"type:string;index:idx_codes_owner_status,priority:2"`
	OwnerOrgID     *uuid.UUID `gorm:"type:uuid;index:idx_codes_owner_status,priority:1"`
	OwnerPatientID *uuid.UUID `gorm:"type:uuid;index"`
}

// Owner returns the tagged owner of the unit. DISPOSED units retain their
// last owner for audit; it is no longer meaningful for stock purposes.
func (c *VirtualCode) Owner() (api.Owner, error) {
	switch {
	case c.OwnerOrgID != nil && c.OwnerPatientID == nil:
		return api.Owner{Type: api.OwnerTypeOrganization, ID: *c.OwnerOrgID}, nil
	case c.OwnerPatientID != nil && c.OwnerOrgID == nil:
		return api.Owner{Type: api.OwnerTypePatient, ID: *c.OwnerPatientID}, nil
	default:
		return api.Owner{}, fmt.Errorf("virtual code %s has invalid owner columns", c.ID)
	}
}

type Patient struct {
	Resource
	PhoneNumber string `gorm:"type:string;uniqueIndex"`
}

// HospitalKnownPatient records the (hospital, patient) pairing once a
// treatment links them, for autocomplete and search. Inserted idempotently.
type HospitalKnownPatient struct {
	Resource
	HospitalID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_known_patients,priority:1"`
	PatientID  uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_known_patients,priority:2"`
	Patient    *Patient  `gorm:"foreignKey:PatientID"`
}

// ManufacturerSettings carries per-manufacturer issuance parameters,
// currently the serial prefix stamped into new codes.
type ManufacturerSettings struct {
	Resource
	OrganizationID uuid.UUID `gorm:"type:uuid;uniqueIndex"`
	CodePrefix     string    `gorm:"type:string"`
}
