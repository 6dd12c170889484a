package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"malladmin/internal/model"
	"malladmin/internal/query"
	"malladmin/pkg/db"
)

const mallSelect = `
    SELECT m.id, m.name, m.address, m.city, m.description, m.total_floors, m.status,
           (SELECT COUNT(*) FROM shops s WHERE s.mall_id = m.id) AS shop_count,
           m.created_at, m.updated_at
    FROM malls m
`

var mallSorts = map[string]string{
	"name":       "m.name",
	"city":       "m.city",
	"status":     "m.status",
	"created_at": "m.created_at",
}

type MallRepository struct {
	pool *pgxpool.Pool
}

func NewMallRepository(pool *pgxpool.Pool) *MallRepository {
	return &MallRepository{pool: pool}
}

func scanMall(row pgx.Row) (*model.Mall, error) {
	var m model.Mall
	err := row.Scan(
		&m.ID, &m.Name, &m.Address, &m.City, &m.Description, &m.TotalFloors, &m.Status,
		&m.ShopCount, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MallRepository) List(ctx context.Context, p query.ListParams) ([]model.Mall, int64, error) {
	w := query.NewWhere().
		Search(p.Search, "m.name", "m.city", "m.address").
		EqIf("m.status", p.Status).
		EqIf("m.city", p.Filter("city"))

	conn := db.Conn(ctx, r.pool)

	var total int64
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM malls m `+w.SQL(), w.Args()...).Scan(&total); err != nil {
		return nil, 0, mapError("count malls", err)
	}

	rows, err := conn.Query(ctx,
		mallSelect+w.SQL()+` `+p.OrderBy(mallSorts, "m.created_at DESC")+` `+w.Limit(p),
		w.Args()...)
	if err != nil {
		return nil, 0, mapError("list malls", err)
	}
	defer rows.Close()

	var malls []model.Mall
	for rows.Next() {
		m, err := scanMall(rows)
		if err != nil {
			return nil, 0, mapError("scan mall", err)
		}
		malls = append(malls, *m)
	}
	return malls, total, mapError("list malls", rows.Err())
}

func (r *MallRepository) GetByID(ctx context.Context, id int64) (*model.Mall, error) {
	m, err := scanMall(db.Conn(ctx, r.pool).QueryRow(ctx, mallSelect+`WHERE m.id = $1`, id))
	if err != nil {
		return nil, mapError("get mall", err)
	}
	return m, nil
}

func (r *MallRepository) Create(ctx context.Context, m *model.Mall) error {
	stmt := `
        INSERT INTO malls (name, address, city, description, total_floors, status)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at, updated_at
    `
	err := db.Conn(ctx, r.pool).QueryRow(ctx, stmt,
		m.Name, m.Address, m.City, m.Description, m.TotalFloors, m.Status,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	return mapError("create mall", err)
}

func (r *MallRepository) Update(ctx context.Context, m *model.Mall) error {
	stmt := `
        UPDATE malls
        SET name = $2, address = $3, city = $4, description = $5, total_floors = $6,
            status = $7, updated_at = NOW()
        WHERE id = $1
        RETURNING created_at, updated_at
    `
	err := db.Conn(ctx, r.pool).QueryRow(ctx, stmt,
		m.ID, m.Name, m.Address, m.City, m.Description, m.TotalFloors, m.Status,
	).Scan(&m.CreatedAt, &m.UpdatedAt)
	return mapError("update mall", err)
}

// Delete fails with ErrConflict while shops still reference the mall.
func (r *MallRepository) Delete(ctx context.Context, id int64) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM malls WHERE id = $1`, id)
	return expectOne("delete mall", tag, err)
}

func (r *MallRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM malls`).Scan(&n)
	return n, mapError("count malls", err)
}
