package model

import (
	api "github.com/neocertify/neocertify/internal/api/v1"
)

type Organization struct {
	Resource
	Type           string `gorm:"type:string;index"`
	Name           string `gorm:"type:string;index"`
	Email          string `gorm:"type:string"`
	BusinessNumber string `gorm:"type:string;uniqueIndex"`
	Address        string `gorm:"type:string"`
	Status         string `gorm:"type:string;index"`
}

func (o *Organization) IsActive() bool {
	return o.Status == string(api.OrgStatusActive)
}
