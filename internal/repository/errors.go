package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// mapError translates pgx errors into repository sentinels, keeping the
// original error in the chain.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w: %w", op, ErrNotFound, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%s: %w: %s: %w", op, ErrConflict, pgErr.ConstraintName, err)
		case pgForeignKeyViolation:
			return fmt.Errorf("%s: %w: %s: %w", op, ErrConflict, pgErr.TableName, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// expectOne turns a zero-row UPDATE/DELETE into ErrNotFound.
func expectOne(op string, tag pgconn.CommandTag, err error) error {
	if err != nil {
		return mapError(op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w: %w", op, ErrNotFound, pgx.ErrNoRows)
	}
	return nil
}
