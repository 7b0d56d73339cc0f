// Package sqlxrepos holds the read-only aggregate queries. They run on the same pool as the gorm repositories.
package sqlxrepos

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

func wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, msg)
}

// query accumulates WHERE conditions written with ? placeholders; Rebind adapts them to the driver.
type query struct {
	base  string
	conds []string
	args  []interface{}
}

func (q *query) where(cond string, args ...interface{}) {
	q.conds = append(q.conds, cond)
	q.args = append(q.args, args...)
}

func (q *query) build(db *sqlx.DB, tail string) (string, []interface{}) {
	sql := q.base
	if len(q.conds) > 0 {
		sql += " WHERE " + strings.Join(q.conds, " AND ")
	}
	if tail != "" {
		sql += " " + tail
	}
	return db.Rebind(sql), q.args
}

func selectAll(ctx context.Context, db *sqlx.DB, dest interface{}, q *query, tail, msg string) error {
	sql, args := q.build(db, tail)
	return wrap(db.SelectContext(ctx, dest, sql, args...), msg)
}
