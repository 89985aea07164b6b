package db

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

// New returns queries bound to db. Statements are written with '?'
// placeholders and rewritten to $n for postgres.
func New(db DBTX, dialect string) *Queries {
	return &Queries{db: db, numbered: dialect == "postgres"}
}

type Queries struct {
	db       DBTX
	numbered bool
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx, numbered: q.numbered}
}

func (q *Queries) rebind(query string) string {
	if !q.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
