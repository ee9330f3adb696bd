package dberrors

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

const pgUniqueViolation = "23505"

// IsDuplicateConstraintError checks if the error is a PostgreSQL unique violation error
// for a specific constraint.
func IsDuplicateConstraintError(err error, constraintName string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == constraintName
}

// IsDuplicateKeyError checks if the error is any PostgreSQL unique violation.
func IsDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// IsMongoDuplicateKeyError checks if a MongoDB write failed on a unique index.
func IsMongoDuplicateKeyError(err error) bool {
	return err != nil && mongo.IsDuplicateKeyError(err)
}
