package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"malladmin/internal/model"
	"malladmin/internal/query"
	"malladmin/pkg/db"
)

const inquiryColumns = `id, name, email, phone, subject, message, mall_id, shop_id, status, response, created_at, updated_at`

var inquirySorts = map[string]string{
	"name":       "name",
	"subject":    "subject",
	"status":     "status",
	"created_at": "created_at",
}

type InquiryRepository struct {
	pool *pgxpool.Pool
}

func NewInquiryRepository(pool *pgxpool.Pool) *InquiryRepository {
	return &InquiryRepository{pool: pool}
}

func scanInquiry(row pgx.Row) (*model.Inquiry, error) {
	var q model.Inquiry
	err := row.Scan(
		&q.ID, &q.Name, &q.Email, &q.Phone, &q.Subject, &q.Message, &q.MallID, &q.ShopID,
		&q.Status, &q.Response, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func collectInquiries(rows pgx.Rows) ([]model.Inquiry, error) {
	defer rows.Close()
	var out []model.Inquiry
	for rows.Next() {
		q, err := scanInquiry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *q)
	}
	return out, rows.Err()
}

func (r *InquiryRepository) List(ctx context.Context, p query.ListParams) ([]model.Inquiry, int64, error) {
	w := query.NewWhere().
		Search(p.Search, "name", "email", "subject").
		EqIf("status", p.Status)
	if mallID, ok := p.FilterID("mall_id"); ok {
		w.Eq("mall_id", mallID)
	}

	conn := db.Conn(ctx, r.pool)

	var total int64
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM inquiries `+w.SQL(), w.Args()...).Scan(&total); err != nil {
		return nil, 0, mapError("count inquiries", err)
	}

	rows, err := conn.Query(ctx,
		`SELECT `+inquiryColumns+` FROM inquiries `+w.SQL()+` `+
			p.OrderBy(inquirySorts, "created_at DESC")+` `+w.Limit(p),
		w.Args()...)
	if err != nil {
		return nil, 0, mapError("list inquiries", err)
	}
	inquiries, err := collectInquiries(rows)
	if err != nil {
		return nil, 0, mapError("list inquiries", err)
	}
	return inquiries, total, nil
}

func (r *InquiryRepository) GetByID(ctx context.Context, id int64) (*model.Inquiry, error) {
	q, err := scanInquiry(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+inquiryColumns+` FROM inquiries WHERE id = $1`, id))
	if err != nil {
		return nil, mapError("get inquiry", err)
	}
	return q, nil
}

func (r *InquiryRepository) Recent(ctx context.Context, limit int) ([]model.Inquiry, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT `+inquiryColumns+` FROM inquiries ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, mapError("recent inquiries", err)
	}
	inquiries, err := collectInquiries(rows)
	return inquiries, mapError("recent inquiries", err)
}

func (r *InquiryRepository) Create(ctx context.Context, q *model.Inquiry) error {
	stmt := `
        INSERT INTO inquiries (name, email, phone, subject, message, mall_id, shop_id, status, response)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id, created_at, updated_at
    `
	err := db.Conn(ctx, r.pool).QueryRow(ctx, stmt,
		q.Name, q.Email, q.Phone, q.Subject, q.Message, q.MallID, q.ShopID, q.Status, q.Response,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
	return mapError("create inquiry", err)
}

func (r *InquiryRepository) Update(ctx context.Context, q *model.Inquiry) error {
	stmt := `
        UPDATE inquiries
        SET name = $2, email = $3, phone = $4, subject = $5, message = $6, mall_id = $7,
            shop_id = $8, status = $9, response = $10, updated_at = NOW()
        WHERE id = $1
        RETURNING created_at, updated_at
    `
	err := db.Conn(ctx, r.pool).QueryRow(ctx, stmt,
		q.ID, q.Name, q.Email, q.Phone, q.Subject, q.Message, q.MallID, q.ShopID, q.Status, q.Response,
	).Scan(&q.CreatedAt, &q.UpdatedAt)
	return mapError("update inquiry", err)
}

// Respond stores the reply and marks the inquiry resolved.
func (r *InquiryRepository) Respond(ctx context.Context, id int64, response string) (*model.Inquiry, error) {
	q, err := scanInquiry(db.Conn(ctx, r.pool).QueryRow(ctx, `
        UPDATE inquiries
        SET response = $2, status = $3, updated_at = NOW()
        WHERE id = $1
        RETURNING `+inquiryColumns,
		id, response, model.InquiryStatusResolved))
	if err != nil {
		return nil, mapError("respond inquiry", err)
	}
	return q, nil
}

func (r *InquiryRepository) Delete(ctx context.Context, id int64) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM inquiries WHERE id = $1`, id)
	return expectOne("delete inquiry", tag, err)
}

func (r *InquiryRepository) CountByStatus(ctx context.Context, statuses ...string) (int64, error) {
	vals := make([]any, len(statuses))
	for i, s := range statuses {
		vals[i] = s
	}
	w := query.NewWhere().In("status", vals...)
	var n int64
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM inquiries `+w.SQL(), w.Args()...).Scan(&n)
	return n, mapError("count inquiries", err)
}
