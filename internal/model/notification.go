package model

import (
	"strings"
	"time"
)

const (
	NotificationInfo    = "info"
	NotificationSuccess = "success"
	NotificationWarning = "warning"
	NotificationError   = "error"
)

type Notification struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	Title       string     `json:"title"`
	Message     string     `json:"message"`
	Type        string     `json:"type"`
	IsRead      bool       `json:"is_read"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// NotificationInput targets one user, or every active user when UserID is nil.
type NotificationInput struct {
	UserID  *int64 `json:"user_id"`
	Title   string `json:"title" binding:"required"`
	Message string `json:"message" binding:"required"`
	Type    string `json:"type"`
}

func (in *NotificationInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Message = strings.TrimSpace(in.Message)
	if in.Type == "" {
		in.Type = NotificationInfo
	}
}

func (in *NotificationInput) Validate() error {
	if in.UserID != nil && *in.UserID <= 0 {
		return invalid("user_id", "must be a valid user id")
	}
	return firstError(
		required("title", in.Title),
		required("message", in.Message),
		oneOf("type", in.Type, NotificationInfo, NotificationSuccess, NotificationWarning, NotificationError),
	)
}
