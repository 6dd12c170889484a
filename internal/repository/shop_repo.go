package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"malladmin/internal/model"
	"malladmin/internal/query"
	"malladmin/pkg/db"
)

const shopSelect = `
    SELECT s.id, s.mall_id, m.name, s.name, s.shop_number, s.floor, s.area_sqft::float8,
           s.monthly_rent::float8, s.category, s.status, s.created_at, s.updated_at
    FROM shops s
    JOIN malls m ON m.id = s.mall_id
`

var shopSorts = map[string]string{
	"name":         "s.name",
	"shop_number":  "s.shop_number",
	"floor":        "s.floor",
	"monthly_rent": "s.monthly_rent",
	"area_sqft":    "s.area_sqft",
	"status":       "s.status",
	"created_at":   "s.created_at",
}

type ShopRepository struct {
	pool *pgxpool.Pool
}

func NewShopRepository(pool *pgxpool.Pool) *ShopRepository {
	return &ShopRepository{pool: pool}
}

func scanShop(row pgx.Row) (*model.Shop, error) {
	var s model.Shop
	err := row.Scan(
		&s.ID, &s.MallID, &s.MallName, &s.Name, &s.ShopNumber, &s.Floor, &s.AreaSqft,
		&s.MonthlyRent, &s.Category, &s.Status, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *ShopRepository) List(ctx context.Context, p query.ListParams) ([]model.Shop, int64, error) {
	w := query.NewWhere().
		Search(p.Search, "s.name", "s.shop_number", "s.category").
		EqIf("s.status", p.Status).
		EqIf("s.category", p.Filter("category"))
	if mallID, ok := p.FilterID("mall_id"); ok {
		w.Eq("s.mall_id", mallID)
	}

	conn := db.Conn(ctx, r.pool)

	var total int64
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM shops s `+w.SQL(), w.Args()...).Scan(&total); err != nil {
		return nil, 0, mapError("count shops", err)
	}

	rows, err := conn.Query(ctx,
		shopSelect+w.SQL()+` `+p.OrderBy(shopSorts, "s.created_at DESC")+` `+w.Limit(p),
		w.Args()...)
	if err != nil {
		return nil, 0, mapError("list shops", err)
	}
	defer rows.Close()

	var shops []model.Shop
	for rows.Next() {
		s, err := scanShop(rows)
		if err != nil {
			return nil, 0, mapError("scan shop", err)
		}
		shops = append(shops, *s)
	}
	return shops, total, mapError("list shops", rows.Err())
}

func (r *ShopRepository) GetByID(ctx context.Context, id int64) (*model.Shop, error) {
	s, err := scanShop(db.Conn(ctx, r.pool).QueryRow(ctx, shopSelect+`WHERE s.id = $1`, id))
	if err != nil {
		return nil, mapError("get shop", err)
	}
	return s, nil
}

// Create fails with ErrConflict on a duplicate shop number within the mall
// or an unknown mall.
func (r *ShopRepository) Create(ctx context.Context, s *model.Shop) error {
	stmt := `
        INSERT INTO shops (mall_id, name, shop_number, floor, area_sqft, monthly_rent, category, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id, created_at, updated_at
    `
	err := db.Conn(ctx, r.pool).QueryRow(ctx, stmt,
		s.MallID, s.Name, s.ShopNumber, s.Floor, s.AreaSqft, s.MonthlyRent, s.Category, s.Status,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	return mapError("create shop", err)
}

func (r *ShopRepository) Update(ctx context.Context, s *model.Shop) error {
	stmt := `
        UPDATE shops
        SET mall_id = $2, name = $3, shop_number = $4, floor = $5, area_sqft = $6,
            monthly_rent = $7, category = $8, status = $9, updated_at = NOW()
        WHERE id = $1
        RETURNING created_at, updated_at
    `
	err := db.Conn(ctx, r.pool).QueryRow(ctx, stmt,
		s.ID, s.MallID, s.Name, s.ShopNumber, s.Floor, s.AreaSqft, s.MonthlyRent, s.Category, s.Status,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	return mapError("update shop", err)
}

func (r *ShopRepository) Delete(ctx context.Context, id int64) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM shops WHERE id = $1`, id)
	return expectOne("delete shop", tag, err)
}

// CountByStatus returns the number of shops, optionally only those with status.
func (r *ShopRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	w := query.NewWhere().EqIf("status", status)
	var n int64
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM shops `+w.SQL(), w.Args()...).Scan(&n)
	return n, mapError("count shops", err)
}
