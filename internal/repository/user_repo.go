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

const userColumns = `id, name, email, phone, role, status, password_hash, last_login_at, created_at, updated_at`

var userSorts = map[string]string{
	"name":       "name",
	"email":      "email",
	"role":       "role",
	"created_at": "created_at",
	"last_login": "last_login_at",
}

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.Phone, &u.Role, &u.Status,
		&u.PasswordHash, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// List returns one page of users matching p plus the total match count.
func (r *UserRepository) List(ctx context.Context, p query.ListParams) ([]model.User, int64, error) {
	w := query.NewWhere().
		Search(p.Search, "name", "email", "phone").
		EqIf("status", p.Status).
		EqIf("role", p.Filter("role"))

	conn := db.Conn(ctx, r.pool)

	var total int64
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM users `+w.SQL(), w.Args()...).Scan(&total); err != nil {
		return nil, 0, mapError("count users", err)
	}

	sql := `SELECT ` + userColumns + ` FROM users ` + w.SQL() + ` ` +
		p.OrderBy(userSorts, "created_at DESC") + ` ` + w.Limit(p)
	rows, err := conn.Query(ctx, sql, w.Args()...)
	if err != nil {
		return nil, 0, mapError("list users", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, mapError("scan user", err)
		}
		users = append(users, *u)
	}
	return users, total, mapError("list users", rows.Err())
}

// GetByID returns ErrNotFound when no row matches.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	u, err := scanUser(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, mapError("get user", err)
	}
	return u, nil
}

// GetByEmail matches the normalized (lower-case) email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		return nil, mapError("get user by email", err)
	}
	return u, nil
}

// Create inserts u and fills its generated fields.
func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	stmt := `
        INSERT INTO users (name, email, phone, role, status, password_hash)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at, updated_at
    `
	err := db.Conn(ctx, r.pool).QueryRow(ctx, stmt,
		u.Name, u.Email, u.Phone, u.Role, u.Status, u.PasswordHash,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	return mapError("create user", err)
}

// Update writes profile fields. The password hash is changed only through
// UpdatePassword.
func (r *UserRepository) Update(ctx context.Context, u *model.User) error {
	stmt := `
        UPDATE users
        SET name = $2, email = $3, phone = $4, role = $5, status = $6, updated_at = NOW()
        WHERE id = $1
        RETURNING updated_at
    `
	err := db.Conn(ctx, r.pool).QueryRow(ctx, stmt,
		u.ID, u.Name, u.Email, u.Phone, u.Role, u.Status,
	).Scan(&u.UpdatedAt)
	return mapError("update user", err)
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, hash)
	return expectOne("update password", tag, err)
}

func (r *UserRepository) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE users SET last_login_at = $2 WHERE id = $1`, id, at)
	return expectOne("touch last login", tag, err)
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	return expectOne("delete user", tag, err)
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, mapError("count users", err)
}

// ActiveIDs returns active user ids, restricted to roles when given.
func (r *UserRepository) ActiveIDs(ctx context.Context, roles ...string) ([]int64, error) {
	w := query.NewWhere().Eq("status", model.UserStatusActive)
	if len(roles) > 0 {
		vals := make([]any, len(roles))
		for i, role := range roles {
			vals[i] = role
		}
		w.In("role", vals...)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, `SELECT id FROM users `+w.SQL()+` ORDER BY id`, w.Args()...)
	if err != nil {
		return nil, mapError("list active users", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	return ids, mapError("list active users", err)
}
