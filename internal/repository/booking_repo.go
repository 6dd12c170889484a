package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"malladmin/internal/model"
	"malladmin/internal/query"
	"malladmin/pkg/db"
)

const bookingSelect = `
    SELECT b.id, b.shop_id, s.name, m.name, b.user_id, u.name, b.start_date, b.end_date,
           b.total_amount::float8, b.status, b.notes, b.created_at, b.updated_at
    FROM bookings b
    JOIN shops s ON s.id = b.shop_id
    JOIN malls m ON m.id = s.mall_id
    JOIN users u ON u.id = b.user_id
`

const bookingFrom = `
    FROM bookings b
    JOIN shops s ON s.id = b.shop_id
    JOIN users u ON u.id = b.user_id
`

var bookingSorts = map[string]string{
	"start_date":   "b.start_date",
	"end_date":     "b.end_date",
	"total_amount": "b.total_amount",
	"status":       "b.status",
	"created_at":   "b.created_at",
}

type BookingRepository struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

func scanBooking(row pgx.Row) (*model.Booking, error) {
	var b model.Booking
	err := row.Scan(
		&b.ID, &b.ShopID, &b.ShopName, &b.MallName, &b.UserID, &b.UserName,
		&b.StartDate.Time, &b.EndDate.Time, &b.TotalAmount, &b.Status, &b.Notes,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func collectBookings(rows pgx.Rows) ([]model.Booking, error) {
	defer rows.Close()
	var out []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (r *BookingRepository) List(ctx context.Context, p query.ListParams) ([]model.Booking, int64, error) {
	w := query.NewWhere().
		Search(p.Search, "s.name", "u.name", "b.notes").
		EqIf("b.status", p.Status)
	if shopID, ok := p.FilterID("shop_id"); ok {
		w.Eq("b.shop_id", shopID)
	}
	if userID, ok := p.FilterID("user_id"); ok {
		w.Eq("b.user_id", userID)
	}

	conn := db.Conn(ctx, r.pool)

	var total int64
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) `+bookingFrom+w.SQL(), w.Args()...).Scan(&total); err != nil {
		return nil, 0, mapError("count bookings", err)
	}

	rows, err := conn.Query(ctx,
		bookingSelect+w.SQL()+` `+p.OrderBy(bookingSorts, "b.created_at DESC")+` `+w.Limit(p),
		w.Args()...)
	if err != nil {
		return nil, 0, mapError("list bookings", err)
	}
	bookings, err := collectBookings(rows)
	if err != nil {
		return nil, 0, mapError("list bookings", err)
	}
	return bookings, total, nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*model.Booking, error) {
	b, err := scanBooking(db.Conn(ctx, r.pool).QueryRow(ctx, bookingSelect+`WHERE b.id = $1`, id))
	if err != nil {
		return nil, mapError("get booking", err)
	}
	return b, nil
}

// Recent returns the newest bookings first.
func (r *BookingRepository) Recent(ctx context.Context, limit int) ([]model.Booking, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		bookingSelect+`ORDER BY b.created_at DESC, b.id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, mapError("recent bookings", err)
	}
	bookings, err := collectBookings(rows)
	return bookings, mapError("recent bookings", err)
}

func (r *BookingRepository) Create(ctx context.Context, b *model.Booking) error {
	stmt := `
        INSERT INTO bookings (shop_id, user_id, start_date, end_date, total_amount, status, notes)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at, updated_at
    `
	err := db.Conn(ctx, r.pool).QueryRow(ctx, stmt,
		b.ShopID, b.UserID, b.StartDate.Time, b.EndDate.Time, b.TotalAmount, b.Status, b.Notes,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	return mapError("create booking", err)
}

func (r *BookingRepository) Update(ctx context.Context, b *model.Booking) error {
	stmt := `
        UPDATE bookings
        SET shop_id = $2, user_id = $3, start_date = $4, end_date = $5, total_amount = $6,
            status = $7, notes = $8, updated_at = NOW()
        WHERE id = $1
        RETURNING created_at, updated_at
    `
	err := db.Conn(ctx, r.pool).QueryRow(ctx, stmt,
		b.ID, b.ShopID, b.UserID, b.StartDate.Time, b.EndDate.Time, b.TotalAmount, b.Status, b.Notes,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	return mapError("update booking", err)
}

// UpdateStatus sets the status and returns the previous one.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id int64, status string) (string, error) {
	stmt := `
        UPDATE bookings b
        SET status = $2, updated_at = NOW()
        FROM (SELECT id, status FROM bookings WHERE id = $1 FOR UPDATE) prev
        WHERE b.id = prev.id
        RETURNING prev.status
    `
	var previous string
	err := db.Conn(ctx, r.pool).QueryRow(ctx, stmt, id, status).Scan(&previous)
	return previous, mapError("update booking status", err)
}

func (r *BookingRepository) Delete(ctx context.Context, id int64) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	return expectOne("delete booking", tag, err)
}

// CountByStatus counts bookings whose status is one of statuses.
func (r *BookingRepository) CountByStatus(ctx context.Context, statuses ...string) (int64, error) {
	vals := make([]any, len(statuses))
	for i, s := range statuses {
		vals[i] = s
	}
	w := query.NewWhere().In("status", vals...)
	var n int64
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM bookings `+w.SQL(), w.Args()...).Scan(&n)
	return n, mapError("count bookings", err)
}
