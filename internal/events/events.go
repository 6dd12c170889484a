// Package events defines the routing keys and payloads exchanged between
// the API (via the outbox) and the worker.
package events

import "time"

const (
	BookingCreated       = "booking.created"
	BookingStatusChanged = "booking.status_changed"
	PaymentRecorded      = "payment.recorded"
	InquiryCreated       = "inquiry.created"
	NotificationCreated  = "notification.created"
)

// Aggregate types stored with outbox rows.
const (
	AggregateBooking      = "booking"
	AggregatePayment      = "payment"
	AggregateInquiry      = "inquiry"
	AggregateNotification = "notification"
)

type BookingCreatedPayload struct {
	BookingID   int64   `json:"booking_id"`
	ShopID      int64   `json:"shop_id"`
	UserID      int64   `json:"user_id"`
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
	TotalAmount float64 `json:"total_amount"`
	Status      string  `json:"status"`
}

type BookingStatusChangedPayload struct {
	BookingID int64  `json:"booking_id"`
	From      string `json:"from"`
	To        string `json:"to"`
}

type PaymentRecordedPayload struct {
	PaymentID int64   `json:"payment_id"`
	BookingID int64   `json:"booking_id"`
	Amount    float64 `json:"amount"`
	Method    string  `json:"method"`
	Status    string  `json:"status"`
}

type InquiryCreatedPayload struct {
	InquiryID int64  `json:"inquiry_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Subject   string `json:"subject"`
}

type NotificationCreatedPayload struct {
	NotificationID int64     `json:"notification_id"`
	UserID         int64     `json:"user_id"`
	CreatedAt      time.Time `json:"created_at"`
}
