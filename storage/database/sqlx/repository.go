// Package sqlxrepos implements the core repositories on Postgres with sqlx.
package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

// postgres error codes
const (
	uniqueViolation      = "23505"
	foreignKeyViolation  = "23503"
	serializationFailure = "40001"
	deadlockDetected     = "40P01"
)

func pgCode(err error) string {
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok {
		return string(pqErr.Code)
	}
	return ""
}

func isConflict(err error) bool {
	code := pgCode(err)
	return code == serializationFailure || code == deadlockDetected
}

// trapNoRows maps "no rows" to notFound and wraps anything else.
func trapNoRows(err error, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// insertReturningID runs a named INSERT ... RETURNING id query.
func insertReturningID(ctx context.Context, exec sqlx.ExtContext, query string, arg interface{}) (int, error) {
	q, args, err := sqlx.Named(query, arg)
	if err != nil {
		return 0, err
	}
	var id int
	err = exec.QueryRowxContext(ctx, exec.Rebind(q), args...).Scan(&id)
	return id, err
}

// updateOne runs a named UPDATE and returns notFound when no row matched.
func updateOne(ctx context.Context, exec sqlx.ExtContext, query string, arg interface{}, notFound error) error {
	q, args, err := sqlx.Named(query, arg)
	if err != nil {
		return err
	}
	res, err := exec.ExecContext(ctx, exec.Rebind(q), args...)
	if err != nil {
		return err
	}
	return checkAffected(res, notFound)
}

func checkAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func exists(ctx context.Context, db sqlx.QueryerContext, query string, args ...interface{}) (bool, error) {
	var ok bool
	err := sqlx.GetContext(ctx, db, &ok, "SELECT EXISTS ("+query+")", args...)
	return ok, err
}

// conditions accumulates WHERE clauses written with `?` placeholders.
type conditions struct {
	clauses []string
	args    []interface{}
}

func (c *conditions) add(clause string, args ...interface{}) {
	c.clauses = append(c.clauses, clause)
	c.args = append(c.args, args...)
}

func (c conditions) where() string {
	if len(c.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.clauses, " AND ")
}

// weekOrder sorts slot rows Monday first; its argument is pq.Array(schedule.Weekdays).
const weekOrder = "array_position(?::varchar[], weekday::varchar)"
