package model

import (
	"github.com/google/uuid"
	"github.com/samber/lo"

	api "github.com/neocertify/neocertify/internal/api/v1"
)

type Product struct {
	Resource
	OrganizationID     uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_products_org_udi,priority:1"`
	Name               string    `gorm:"type:string"`
	UdiDi              string    `gorm:"type:string;uniqueIndex:idx_products_org_udi,priority:2"`
	ModelName          string    `gorm:"type:string"`
	IsActive           bool      `gorm:"default:true"`
	DeactivationReason *string   `gorm:"type:string"`
}

func (p *Product) ToApiResource() api.Product {
	var reason *api.DeactivationReason
	if p.DeactivationReason != nil {
		reason = lo.ToPtr(api.DeactivationReason(*p.DeactivationReason))
	}
	return api.Product{
		ID:                 p.ID,
		OrganizationID:     p.OrganizationID,
		Name:               p.Name,
		UdiDi:              p.UdiDi,
		ModelName:          p.ModelName,
		IsActive:           p.IsActive,
		DeactivationReason: reason,
		CreatedAt:          p.CreatedAt,
	}
}

type Lot struct {
	Resource
	ProductID       uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_lots_product_number,priority:1"`
	Product         *Product  `gorm:"foreignKey:ProductID"`
	LotNumber       string    `gorm:"type:string;uniqueIndex:idx_lots_product_number,priority:2"`
	// Count of units ever issued under this lot. Only ever increases.
	Quantity        int
	ManufactureDate string `gorm:"type:string;index"`
	ExpiryDate      string `gorm:"type:string"`
}
