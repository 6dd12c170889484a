package model

import (
	"strings"
	"time"
)

const (
	MallStatusActive            = "active"
	MallStatusInactive          = "inactive"
	MallStatusUnderConstruction = "under_construction"
)

type Mall struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Address     string    `json:"address"`
	City        string    `json:"city"`
	Description string    `json:"description"`
	TotalFloors int       `json:"total_floors"`
	Status      string    `json:"status"`
	ShopCount   int       `json:"shop_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type MallInput struct {
	Name        string `json:"name" binding:"required"`
	Address     string `json:"address" binding:"required"`
	City        string `json:"city" binding:"required"`
	Description string `json:"description"`
	TotalFloors int    `json:"total_floors"`
	Status      string `json:"status"`
}

func (in *MallInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Address = strings.TrimSpace(in.Address)
	in.City = strings.TrimSpace(in.City)
	if in.Status == "" {
		in.Status = MallStatusActive
	}
}

func (in *MallInput) Validate() error {
	err := firstError(
		required("name", in.Name),
		required("address", in.Address),
		required("city", in.City),
		oneOf("status", in.Status, MallStatusActive, MallStatusInactive, MallStatusUnderConstruction),
	)
	if err != nil {
		return err
	}
	if in.TotalFloors < 0 {
		return invalid("total_floors", "must not be negative")
	}
	return nil
}

// Apply copies the form onto m.
func (in *MallInput) Apply(m *Mall) {
	m.Name = in.Name
	m.Address = in.Address
	m.City = in.City
	m.Description = in.Description
	m.TotalFloors = in.TotalFloors
	m.Status = in.Status
}
