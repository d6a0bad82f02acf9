package observability

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgErrorReasons names the SQLSTATE codes the task and user stores can
// actually hit; anything else is reported as pg_<code>.
var pgErrorReasons = map[string]string{
	"23505": "unique_violation",      // users.email
	"23503": "foreign_key_violation", // tasks.owner_id
	"23502": "not_null_violation",
	"23514": "check_violation", // tasks.priority
	"40001": "serialization_failure",
	"40P01": "deadlock",
	"57014": "query_canceled",
}

// ObserveDB runs fn as the store operation op and records its latency and,
// on failure, the reason. pgx.ErrNoRows is a normal lookup miss for the
// stores and is tracked as status "no_rows", not as an error.
// A nil *Prom only runs fn.
func (p *Prom) ObserveDB(op string, fn func() error) error {
	if p == nil {
		return fn()
	}

	start := time.Now()
	err := fn()
	elapsed := time.Since(start).Seconds()

	status := "ok"
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			status = "no_rows"
		} else {
			status = "error"
			p.DbErrorsTotal.WithLabelValues(op, dbErrorReason(err)).Inc()
		}
	}

	p.DbQueryDuration.WithLabelValues(op, status).Observe(elapsed)
	return err
}

func dbErrorReason(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if reason, ok := pgErrorReasons[pgErr.Code]; ok {
			return reason
		}
		return "pg_" + pgErr.Code
	}

	switch {
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded), pgconn.Timeout(err):
		return "timeout"
	case pgconn.SafeToRetry(err):
		return "connection"
	default:
		return "unknown"
	}
}
