package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kirillkom/invoice-assistant/internal/infrastructure/resilience"
)

var classifyPostgresError = resilience.Transient(retryablePostgresError)

// retryablePostgresError reports serialization conflicts, deadlocks and
// failures pgconn knows happened before anything reached the server. A
// connection lost mid-statement is not retried: the upsert increments a
// counter and may already have committed.
func retryablePostgresError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return pgconn.SafeToRetry(err)
}
