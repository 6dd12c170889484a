package service

import (
	"context"
	"time"

	"malladmin/internal/model"
	"malladmin/internal/query"
)

// TxRunner runs fn in one database transaction carried by ctx.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventWriter records outbox events inside the caller's transaction.
type EventWriter interface {
	Enqueue(ctx context.Context, aggregateType string, aggregateID int64, routingKey string, payload any) error
}

type UserStore interface {
	List(ctx context.Context, p query.ListParams) ([]model.User, int64, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Create(ctx context.Context, u *model.User) error
	Update(ctx context.Context, u *model.User) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
	ActiveIDs(ctx context.Context, roles ...string) ([]int64, error)
}

type MallStore interface {
	List(ctx context.Context, p query.ListParams) ([]model.Mall, int64, error)
	GetByID(ctx context.Context, id int64) (*model.Mall, error)
	Create(ctx context.Context, m *model.Mall) error
	Update(ctx context.Context, m *model.Mall) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}

type ShopStore interface {
	List(ctx context.Context, p query.ListParams) ([]model.Shop, int64, error)
	GetByID(ctx context.Context, id int64) (*model.Shop, error)
	Create(ctx context.Context, s *model.Shop) error
	Update(ctx context.Context, s *model.Shop) error
	Delete(ctx context.Context, id int64) error
	CountByStatus(ctx context.Context, status string) (int64, error)
}

type BookingStore interface {
	List(ctx context.Context, p query.ListParams) ([]model.Booking, int64, error)
	GetByID(ctx context.Context, id int64) (*model.Booking, error)
	Recent(ctx context.Context, limit int) ([]model.Booking, error)
	Create(ctx context.Context, b *model.Booking) error
	Update(ctx context.Context, b *model.Booking) error
	UpdateStatus(ctx context.Context, id int64, status string) (string, error)
	Delete(ctx context.Context, id int64) error
	CountByStatus(ctx context.Context, statuses ...string) (int64, error)
}

type PaymentStore interface {
	List(ctx context.Context, p query.ListParams) ([]model.Payment, int64, error)
	GetByID(ctx context.Context, id int64) (*model.Payment, error)
	Create(ctx context.Context, p *model.Payment) error
	Update(ctx context.Context, p *model.Payment) error
	Delete(ctx context.Context, id int64) error
	SumByStatus(ctx context.Context, status string) (float64, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
}

type InquiryStore interface {
	List(ctx context.Context, p query.ListParams) ([]model.Inquiry, int64, error)
	GetByID(ctx context.Context, id int64) (*model.Inquiry, error)
	Recent(ctx context.Context, limit int) ([]model.Inquiry, error)
	Create(ctx context.Context, q *model.Inquiry) error
	Update(ctx context.Context, q *model.Inquiry) error
	Respond(ctx context.Context, id int64, response string) (*model.Inquiry, error)
	Delete(ctx context.Context, id int64) error
	CountByStatus(ctx context.Context, statuses ...string) (int64, error)
}

type NotificationStore interface {
	ListForUser(ctx context.Context, userID int64, p query.ListParams) ([]model.Notification, int64, error)
	GetByID(ctx context.Context, id int64) (*model.Notification, error)
	Create(ctx context.Context, n *model.Notification) error
	UnreadCount(ctx context.Context, userID int64) (int64, error)
	MarkRead(ctx context.Context, id, userID int64) error
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
	Delete(ctx context.Context, id, userID int64) error
	MarkDelivered(ctx context.Context, id int64, at time.Time) (bool, error)
}

type SettingStore interface {
	List(ctx context.Context) ([]model.Setting, error)
	Get(ctx context.Context, key string) (*model.Setting, error)
	Upsert(ctx context.Context, s *model.Setting) error
	Delete(ctx context.Context, key string) error
}

type AuditStore interface {
	Insert(ctx context.Context, a *model.AuditLog) error
	List(ctx context.Context, p query.ListParams) ([]model.AuditLog, int64, error)
}

type ReportStore interface {
	RevenueByMonth(ctx context.Context, from, to time.Time, mallID *int64) ([]model.MonthlyRevenue, error)
	Occupancy(ctx context.Context) ([]model.MallOccupancy, error)
	BookingStatusCounts(ctx context.Context) (map[string]int64, error)
}

type SessionStore interface {
	Create(ctx context.Context, s *model.Session) error
	Get(ctx context.Context, id string) (*model.Session, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Session, error)
	Delete(ctx context.Context, userID int64, id string) error
	DeleteAllExcept(ctx context.Context, userID int64, keepID string) (int, error)
}

// AttemptCounter counts failed logins per email inside a window.
type AttemptCounter interface {
	Increment(ctx context.Context, id string) (int64, error)
	Get(ctx context.Context, id string) (int64, error)
	Reset(ctx context.Context, id string) error
}
