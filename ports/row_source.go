package ports

import (
	"context"
	"time"
)

// Query is a SQL statement with ":name" placeholders and its named
// parameters. Slice parameters expand into IN lists.
type Query struct {
	SQL    string
	Params map[string]any
}

// Row gives typed, name-keyed access to one result row. Column names are the
// contract between a query builder's select list and the row mapper.
type Row interface {
	String(column string) (string, error)
	Float(column string) (float64, error)
	Bool(column string) (bool, error)
	Time(column string) (time.Time, error)
	// NullString returns "" for SQL NULL.
	NullString(column string) (string, error)
}

// RowSource executes a query and streams its rows to fn. Iteration stops at
// the first error returned by fn. Implementations report values the store
// could not interpret as numbers with core.ErrDataIntegrity.
type RowSource interface {
	Query(ctx context.Context, q Query, fn func(Row) error) error
}
