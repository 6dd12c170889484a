package model

import (
	"strings"
	"time"
)

const (
	ShopStatusAvailable   = "available"
	ShopStatusOccupied    = "occupied"
	ShopStatusMaintenance = "maintenance"
	ShopStatusReserved    = "reserved"
)

type Shop struct {
	ID          int64     `json:"id"`
	MallID      int64     `json:"mall_id"`
	MallName    string    `json:"mall_name,omitempty"`
	Name        string    `json:"name"`
	ShopNumber  string    `json:"shop_number"`
	Floor       int       `json:"floor"`
	AreaSqft    float64   `json:"area_sqft"`
	MonthlyRent float64   `json:"monthly_rent"`
	Category    string    `json:"category"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ShopInput struct {
	MallID      int64   `json:"mall_id" binding:"required"`
	Name        string  `json:"name" binding:"required"`
	ShopNumber  string  `json:"shop_number" binding:"required"`
	Floor       int     `json:"floor"`
	AreaSqft    float64 `json:"area_sqft"`
	MonthlyRent float64 `json:"monthly_rent"`
	Category    string  `json:"category"`
	Status      string  `json:"status"`
}

func (in *ShopInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.ShopNumber = strings.TrimSpace(in.ShopNumber)
	in.Category = strings.TrimSpace(in.Category)
	if in.Status == "" {
		in.Status = ShopStatusAvailable
	}
}

func (in *ShopInput) Validate() error {
	if in.MallID <= 0 {
		return invalid("mall_id", "is required")
	}
	err := firstError(
		required("name", in.Name),
		required("shop_number", in.ShopNumber),
		oneOf("status", in.Status, ShopStatusAvailable, ShopStatusOccupied, ShopStatusMaintenance, ShopStatusReserved),
	)
	if err != nil {
		return err
	}
	if in.AreaSqft < 0 {
		return invalid("area_sqft", "must not be negative")
	}
	if in.MonthlyRent < 0 {
		return invalid("monthly_rent", "must not be negative")
	}
	return nil
}

func (in *ShopInput) Apply(s *Shop) {
	s.MallID = in.MallID
	s.Name = in.Name
	s.ShopNumber = in.ShopNumber
	s.Floor = in.Floor
	s.AreaSqft = in.AreaSqft
	s.MonthlyRent = in.MonthlyRent
	s.Category = in.Category
	s.Status = in.Status
}
