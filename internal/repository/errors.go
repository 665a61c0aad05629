package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/yesmonga/karting-sub000/internal/models"
)

const pgUniqueViolation = "23505"

// mapPgError turns driver errors callers branch on into model errors
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return models.ErrDuplicateKey
	}
	return err
}
