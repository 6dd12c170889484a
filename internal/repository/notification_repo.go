package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"malladmin/internal/model"
	"malladmin/internal/query"
	"malladmin/pkg/db"
)

const notificationColumns = `id, user_id, title, message, type, is_read, delivered_at, created_at`

type NotificationRepository struct {
	pool *pgxpool.Pool
}

func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

func scanNotification(row pgx.Row) (*model.Notification, error) {
	var n model.Notification
	err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.IsRead, &n.DeliveredAt, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// ListForUser pages the user's notifications, newest first. The "read"
// filter accepts true or false; "type" is an equality filter.
func (r *NotificationRepository) ListForUser(ctx context.Context, userID int64, p query.ListParams) ([]model.Notification, int64, error) {
	w := query.NewWhere().
		Eq("user_id", userID).
		Search(p.Search, "title", "message").
		EqIf("type", p.Filter("type"))
	switch p.Filter("read") {
	case "true":
		w.Eq("is_read", true)
	case "false":
		w.Eq("is_read", false)
	}

	conn := db.Conn(ctx, r.pool)

	var total int64
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM notifications `+w.SQL(), w.Args()...).Scan(&total); err != nil {
		return nil, 0, mapError("count notifications", err)
	}

	rows, err := conn.Query(ctx,
		`SELECT `+notificationColumns+` FROM notifications `+w.SQL()+
			` ORDER BY created_at DESC, id DESC `+w.Limit(p),
		w.Args()...)
	if err != nil {
		return nil, 0, mapError("list notifications", err)
	}
	defer rows.Close()

	var out []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, mapError("scan notification", err)
		}
		out = append(out, *n)
	}
	return out, total, mapError("list notifications", rows.Err())
}

func (r *NotificationRepository) GetByID(ctx context.Context, id int64) (*model.Notification, error) {
	n, err := scanNotification(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id))
	if err != nil {
		return nil, mapError("get notification", err)
	}
	return n, nil
}

func (r *NotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	stmt := `
        INSERT INTO notifications (user_id, title, message, type)
        VALUES ($1, $2, $3, $4)
        RETURNING id, is_read, created_at
    `
	err := db.Conn(ctx, r.pool).QueryRow(ctx, stmt,
		n.UserID, n.Title, n.Message, n.Type,
	).Scan(&n.ID, &n.IsRead, &n.CreatedAt)
	return mapError("create notification", err)
}

func (r *NotificationRepository) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT is_read`, userID).Scan(&n)
	return n, mapError("count unread notifications", err)
}

// MarkRead only touches rows owned by userID.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID int64) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	return expectOne("mark notification read", tag, err)
}

// MarkAllRead returns the number of rows changed.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND NOT is_read`, userID)
	if err != nil {
		return 0, mapError("mark all notifications read", err)
	}
	return tag.RowsAffected(), nil
}

func (r *NotificationRepository) Delete(ctx context.Context, id, userID int64) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx,
		`DELETE FROM notifications WHERE id = $1 AND user_id = $2`, id, userID)
	return expectOne("delete notification", tag, err)
}

// MarkDelivered stamps delivered_at once. It reports false when the row is
// missing or was already delivered.
func (r *NotificationRepository) MarkDelivered(ctx context.Context, id int64, at time.Time) (bool, error) {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE notifications SET delivered_at = $2 WHERE id = $1 AND delivered_at IS NULL`, id, at)
	if err != nil {
		return false, mapError("mark notification delivered", err)
	}
	return tag.RowsAffected() == 1, nil
}
