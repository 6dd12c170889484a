package model

import (
	"strings"
	"time"
)

const (
	InquiryStatusNew        = "new"
	InquiryStatusInProgress = "in_progress"
	InquiryStatusResolved   = "resolved"
	InquiryStatusClosed     = "closed"
)

type Inquiry struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	MallID    *int64    `json:"mall_id,omitempty"`
	ShopID    *int64    `json:"shop_id,omitempty"`
	Status    string    `json:"status"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type InquiryInput struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Phone    string `json:"phone"`
	Subject  string `json:"subject" binding:"required"`
	Message  string `json:"message" binding:"required"`
	MallID   *int64 `json:"mall_id"`
	ShopID   *int64 `json:"shop_id"`
	Status   string `json:"status"`
	Response string `json:"response"`
}

func (in *InquiryInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	in.Subject = strings.TrimSpace(in.Subject)
	in.Message = strings.TrimSpace(in.Message)
	in.Response = strings.TrimSpace(in.Response)
	if in.Status == "" {
		in.Status = InquiryStatusNew
	}
}

func (in *InquiryInput) Validate() error {
	return firstError(
		required("name", in.Name),
		validEmail("email", in.Email),
		required("subject", in.Subject),
		required("message", in.Message),
		oneOf("status", in.Status, InquiryStatusNew, InquiryStatusInProgress, InquiryStatusResolved, InquiryStatusClosed),
	)
}

func (in *InquiryInput) Apply(q *Inquiry) {
	q.Name = in.Name
	q.Email = in.Email
	q.Phone = in.Phone
	q.Subject = in.Subject
	q.Message = in.Message
	q.MallID = in.MallID
	q.ShopID = in.ShopID
	q.Status = in.Status
	q.Response = in.Response
}

// InquiryResponse is the staff reply form.
type InquiryResponse struct {
	Response string `json:"response" binding:"required"`
}

func (in *InquiryResponse) Validate() error {
	in.Response = strings.TrimSpace(in.Response)
	return required("response", in.Response)
}
