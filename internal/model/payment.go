package model

import (
	"strings"
	"time"
)

const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

const (
	PaymentMethodCard         = "card"
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodCash         = "cash"
	PaymentMethodUPI          = "upi"
)

type Payment struct {
	ID             int64      `json:"id"`
	BookingID      int64      `json:"booking_id"`
	ShopName       string     `json:"shop_name,omitempty"`
	Amount         float64    `json:"amount"`
	Method         string     `json:"method"`
	Status         string     `json:"status"`
	TransactionRef string     `json:"transaction_ref"`
	PaidAt         *time.Time `json:"paid_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type PaymentInput struct {
	BookingID      int64      `json:"booking_id" binding:"required"`
	Amount         float64    `json:"amount" binding:"required"`
	Method         string     `json:"method" binding:"required"`
	Status         string     `json:"status"`
	TransactionRef string     `json:"transaction_ref"`
	PaidAt         *time.Time `json:"paid_at"`
}

// Normalize trims fields, defaults the status and stamps PaidAt for
// completed payments that lack one.
func (in *PaymentInput) Normalize(now time.Time) {
	in.TransactionRef = strings.TrimSpace(in.TransactionRef)
	if in.Status == "" {
		in.Status = PaymentStatusPending
	}
	if in.Status == PaymentStatusCompleted && in.PaidAt == nil {
		paid := now
		in.PaidAt = &paid
	}
}

func (in *PaymentInput) Validate() error {
	if in.BookingID <= 0 {
		return invalid("booking_id", "is required")
	}
	if in.Amount <= 0 {
		return invalid("amount", "must be greater than zero")
	}
	return firstError(
		oneOf("method", in.Method, PaymentMethodCard, PaymentMethodBankTransfer, PaymentMethodCash, PaymentMethodUPI),
		oneOf("status", in.Status, PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusRefunded),
	)
}

func (in *PaymentInput) Apply(p *Payment) {
	p.BookingID = in.BookingID
	p.Amount = in.Amount
	p.Method = in.Method
	p.Status = in.Status
	p.TransactionRef = in.TransactionRef
	p.PaidAt = in.PaidAt
}
