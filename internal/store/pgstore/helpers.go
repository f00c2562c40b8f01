package pgstore

import (
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func newID() string {
	return uuid.NewString()
}
