package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"malladmin/internal/model"
	"malladmin/internal/query"
	"malladmin/pkg/db"
)

// ReportRepository runs the aggregate queries behind reports.
type ReportRepository struct {
	pool *pgxpool.Pool
}

func NewReportRepository(pool *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{pool: pool}
}

// RevenueByMonth sums completed payments paid in [from, to) per month. Months
// without payments are absent; the caller fills them.
func (r *ReportRepository) RevenueByMonth(ctx context.Context, from, to time.Time, mallID *int64) ([]model.MonthlyRevenue, error) {
	w := query.NewWhere().
		Eq("p.status", model.PaymentStatusCompleted).
		Cond("p.paid_at >= %s", from).
		Cond("p.paid_at < %s", to)
	if mallID != nil {
		w.Eq("s.mall_id", *mallID)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
        SELECT to_char(date_trunc('month', p.paid_at AT TIME ZONE 'UTC'), 'YYYY-MM') AS month,
               COALESCE(SUM(p.amount), 0)::float8,
               COUNT(*)
        FROM payments p
        JOIN bookings b ON b.id = p.booking_id
        JOIN shops s ON s.id = b.shop_id
        `+w.SQL()+`
        GROUP BY month
        ORDER BY month`, w.Args()...)
	if err != nil {
		return nil, mapError("revenue by month", err)
	}
	defer rows.Close()

	var out []model.MonthlyRevenue
	for rows.Next() {
		var m model.MonthlyRevenue
		if err := rows.Scan(&m.Month, &m.Total, &m.Payments); err != nil {
			return nil, mapError("scan revenue", err)
		}
		out = append(out, m)
	}
	return out, mapError("revenue by month", rows.Err())
}

// Occupancy returns shop totals per mall; the rate is computed by the caller.
func (r *ReportRepository) Occupancy(ctx context.Context) ([]model.MallOccupancy, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
        SELECT m.id, m.name,
               COUNT(s.id),
               COUNT(s.id) FILTER (WHERE s.status = $1)
        FROM malls m
        LEFT JOIN shops s ON s.mall_id = m.id
        GROUP BY m.id, m.name
        ORDER BY m.name, m.id`, model.ShopStatusOccupied)
	if err != nil {
		return nil, mapError("occupancy", err)
	}
	defer rows.Close()

	var out []model.MallOccupancy
	for rows.Next() {
		var o model.MallOccupancy
		if err := rows.Scan(&o.MallID, &o.MallName, &o.TotalShops, &o.OccupiedShops); err != nil {
			return nil, mapError("scan occupancy", err)
		}
		out = append(out, o)
	}
	return out, mapError("occupancy", rows.Err())
}

// BookingStatusCounts returns counts for statuses that have bookings.
func (r *ReportRepository) BookingStatusCounts(ctx context.Context) (map[string]int64, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT status, COUNT(*) FROM bookings GROUP BY status`)
	if err != nil {
		return nil, mapError("booking status counts", err)
	}
	defer rows.Close()

	out := map[string]int64{}
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, mapError("scan booking status", err)
		}
		out[status] = n
	}
	return out, mapError("booking status counts", rows.Err())
}
