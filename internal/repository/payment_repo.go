package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"malladmin/internal/model"
	"malladmin/internal/query"
	"malladmin/pkg/db"
)

const paymentSelect = `
    SELECT p.id, p.booking_id, s.name, p.amount::float8, p.method, p.status, p.transaction_ref,
           p.paid_at, p.created_at, p.updated_at
    FROM payments p
    JOIN bookings b ON b.id = p.booking_id
    JOIN shops s ON s.id = b.shop_id
`

var paymentSorts = map[string]string{
	"amount":     "p.amount",
	"paid_at":    "p.paid_at",
	"status":     "p.status",
	"method":     "p.method",
	"created_at": "p.created_at",
}

type PaymentRepository struct {
	pool *pgxpool.Pool
}

func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

func scanPayment(row pgx.Row) (*model.Payment, error) {
	var p model.Payment
	err := row.Scan(
		&p.ID, &p.BookingID, &p.ShopName, &p.Amount, &p.Method, &p.Status, &p.TransactionRef,
		&p.PaidAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) List(ctx context.Context, p query.ListParams) ([]model.Payment, int64, error) {
	w := query.NewWhere().
		Search(p.Search, "p.transaction_ref").
		EqIf("p.status", p.Status).
		EqIf("p.method", p.Filter("method"))
	if bookingID, ok := p.FilterID("booking_id"); ok {
		w.Eq("p.booking_id", bookingID)
	}

	conn := db.Conn(ctx, r.pool)

	var total int64
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM payments p `+w.SQL(), w.Args()...).Scan(&total); err != nil {
		return nil, 0, mapError("count payments", err)
	}

	rows, err := conn.Query(ctx,
		paymentSelect+w.SQL()+` `+p.OrderBy(paymentSorts, "p.created_at DESC")+` `+w.Limit(p),
		w.Args()...)
	if err != nil {
		return nil, 0, mapError("list payments", err)
	}
	defer rows.Close()

	var payments []model.Payment
	for rows.Next() {
		pay, err := scanPayment(rows)
		if err != nil {
			return nil, 0, mapError("scan payment", err)
		}
		payments = append(payments, *pay)
	}
	return payments, total, mapError("list payments", rows.Err())
}

func (r *PaymentRepository) GetByID(ctx context.Context, id int64) (*model.Payment, error) {
	p, err := scanPayment(db.Conn(ctx, r.pool).QueryRow(ctx, paymentSelect+`WHERE p.id = $1`, id))
	if err != nil {
		return nil, mapError("get payment", err)
	}
	return p, nil
}

func (r *PaymentRepository) Create(ctx context.Context, p *model.Payment) error {
	stmt := `
        INSERT INTO payments (booking_id, amount, method, status, transaction_ref, paid_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at, updated_at
    `
	err := db.Conn(ctx, r.pool).QueryRow(ctx, stmt,
		p.BookingID, p.Amount, p.Method, p.Status, p.TransactionRef, p.PaidAt,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	return mapError("create payment", err)
}

func (r *PaymentRepository) Update(ctx context.Context, p *model.Payment) error {
	stmt := `
        UPDATE payments
        SET booking_id = $2, amount = $3, method = $4, status = $5, transaction_ref = $6,
            paid_at = $7, updated_at = NOW()
        WHERE id = $1
        RETURNING created_at, updated_at
    `
	err := db.Conn(ctx, r.pool).QueryRow(ctx, stmt,
		p.ID, p.BookingID, p.Amount, p.Method, p.Status, p.TransactionRef, p.PaidAt,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	return mapError("update payment", err)
}

func (r *PaymentRepository) Delete(ctx context.Context, id int64) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM payments WHERE id = $1`, id)
	return expectOne("delete payment", tag, err)
}

// SumByStatus returns the total amount of payments in status.
func (r *PaymentRepository) SumByStatus(ctx context.Context, status string) (float64, error) {
	var sum float64
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0)::float8 FROM payments WHERE status = $1`, status).Scan(&sum)
	return sum, mapError("sum payments", err)
}

func (r *PaymentRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var n int64
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM payments WHERE status = $1`, status).Scan(&n)
	return n, mapError("count payments", err)
}
