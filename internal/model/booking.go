package model

import (
	"strings"
	"time"
)

const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
	BookingStatusCompleted = "completed"
)

// BookingStatuses lists every booking status in display order.
var BookingStatuses = []string{
	BookingStatusPending,
	BookingStatusConfirmed,
	BookingStatusCancelled,
	BookingStatusCompleted,
}

type Booking struct {
	ID          int64     `json:"id"`
	ShopID      int64     `json:"shop_id"`
	ShopName    string    `json:"shop_name,omitempty"`
	MallName    string    `json:"mall_name,omitempty"`
	UserID      int64     `json:"user_id"`
	UserName    string    `json:"user_name,omitempty"`
	StartDate   Date      `json:"start_date"`
	EndDate     Date      `json:"end_date"`
	TotalAmount float64   `json:"total_amount"`
	Status      string    `json:"status"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type BookingInput struct {
	ShopID      int64   `json:"shop_id" binding:"required"`
	UserID      int64   `json:"user_id" binding:"required"`
	StartDate   Date    `json:"start_date"`
	EndDate     Date    `json:"end_date"`
	TotalAmount float64 `json:"total_amount"`
	Status      string  `json:"status"`
	Notes       string  `json:"notes"`
}

func (in *BookingInput) Normalize() {
	in.Notes = strings.TrimSpace(in.Notes)
	if in.Status == "" {
		in.Status = BookingStatusPending
	}
}

func (in *BookingInput) Validate() error {
	if in.ShopID <= 0 {
		return invalid("shop_id", "is required")
	}
	if in.UserID <= 0 {
		return invalid("user_id", "is required")
	}
	if in.StartDate.IsZero() {
		return invalid("start_date", "is required")
	}
	if in.EndDate.IsZero() {
		return invalid("end_date", "is required")
	}
	if in.EndDate.Before(in.StartDate.Time) {
		return invalid("end_date", "must not be before start_date")
	}
	if in.TotalAmount < 0 {
		return invalid("total_amount", "must not be negative")
	}
	return ValidateBookingStatus(in.Status)
}

func (in *BookingInput) Apply(b *Booking) {
	b.ShopID = in.ShopID
	b.UserID = in.UserID
	b.StartDate = in.StartDate
	b.EndDate = in.EndDate
	b.TotalAmount = in.TotalAmount
	b.Status = in.Status
	b.Notes = in.Notes
}

// ValidateBookingStatus checks a status value.
func ValidateBookingStatus(status string) error {
	return oneOf("status", status, BookingStatuses...)
}

// IsActiveBooking reports whether a booking still holds its shop.
func IsActiveBooking(status string) bool {
	return status == BookingStatusPending || status == BookingStatusConfirmed
}
