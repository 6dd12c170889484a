package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"malladmin/internal/model"
	"malladmin/pkg/db"
)

type SettingRepository struct {
	pool *pgxpool.Pool
}

func NewSettingRepository(pool *pgxpool.Pool) *SettingRepository {
	return &SettingRepository{pool: pool}
}

func scanSetting(row pgx.Row) (*model.Setting, error) {
	var s model.Setting
	if err := row.Scan(&s.Key, &s.Value, &s.Description, &s.UpdatedBy, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SettingRepository) List(ctx context.Context) ([]model.Setting, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT key, value, description, updated_by, updated_at FROM settings ORDER BY key`)
	if err != nil {
		return nil, mapError("list settings", err)
	}
	defer rows.Close()

	var out []model.Setting
	for rows.Next() {
		s, err := scanSetting(rows)
		if err != nil {
			return nil, mapError("scan setting", err)
		}
		out = append(out, *s)
	}
	return out, mapError("list settings", rows.Err())
}

func (r *SettingRepository) Get(ctx context.Context, key string) (*model.Setting, error) {
	s, err := scanSetting(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT key, value, description, updated_by, updated_at FROM settings WHERE key = $1`, key))
	if err != nil {
		return nil, mapError("get setting", err)
	}
	return s, nil
}

// Upsert creates or replaces a setting. An empty description keeps the
// stored one.
func (r *SettingRepository) Upsert(ctx context.Context, s *model.Setting) error {
	stmt := `
        INSERT INTO settings (key, value, description, updated_by, updated_at)
        VALUES ($1, $2, $3, $4, NOW())
        ON CONFLICT (key) DO UPDATE
        SET value = EXCLUDED.value,
            description = CASE WHEN EXCLUDED.description = '' THEN settings.description ELSE EXCLUDED.description END,
            updated_by = EXCLUDED.updated_by,
            updated_at = NOW()
        RETURNING description, updated_at
    `
	err := db.Conn(ctx, r.pool).QueryRow(ctx, stmt,
		s.Key, s.Value, s.Description, s.UpdatedBy,
	).Scan(&s.Description, &s.UpdatedAt)
	return mapError("upsert setting", err)
}

func (r *SettingRepository) Delete(ctx context.Context, key string) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM settings WHERE key = $1`, key)
	return expectOne("delete setting", tag, err)
}
