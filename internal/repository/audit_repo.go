package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"malladmin/internal/model"
	"malladmin/internal/query"
	"malladmin/pkg/db"
)

type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

func (r *AuditRepository) Insert(ctx context.Context, a *model.AuditLog) error {
	stmt := `
        INSERT INTO audit_logs (user_id, action, resource, resource_id, ip, user_agent, status_code)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at
    `
	err := db.Conn(ctx, r.pool).QueryRow(ctx, stmt,
		a.UserID, a.Action, a.Resource, a.ResourceID, a.IP, a.UserAgent, a.StatusCode,
	).Scan(&a.ID, &a.CreatedAt)
	return mapError("insert audit log", err)
}

// List filters on action, resource and user_id, newest first.
func (r *AuditRepository) List(ctx context.Context, p query.ListParams) ([]model.AuditLog, int64, error) {
	w := query.NewWhere().
		Search(p.Search, "resource", "resource_id", "ip").
		EqIf("action", p.Filter("action")).
		EqIf("resource", p.Filter("resource"))
	if userID, ok := p.FilterID("user_id"); ok {
		w.Eq("user_id", userID)
	}

	conn := db.Conn(ctx, r.pool)

	var total int64
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM audit_logs `+w.SQL(), w.Args()...).Scan(&total); err != nil {
		return nil, 0, mapError("count audit logs", err)
	}

	rows, err := conn.Query(ctx, `
        SELECT id, user_id, action, resource, resource_id, ip, user_agent, status_code, created_at
        FROM audit_logs `+w.SQL()+` ORDER BY created_at DESC, id DESC `+w.Limit(p),
		w.Args()...)
	if err != nil {
		return nil, 0, mapError("list audit logs", err)
	}
	defer rows.Close()

	var out []model.AuditLog
	for rows.Next() {
		var a model.AuditLog
		if err := rows.Scan(&a.ID, &a.UserID, &a.Action, &a.Resource, &a.ResourceID,
			&a.IP, &a.UserAgent, &a.StatusCode, &a.CreatedAt); err != nil {
			return nil, 0, mapError("scan audit log", err)
		}
		out = append(out, a)
	}
	return out, total, mapError("list audit logs", rows.Err())
}
