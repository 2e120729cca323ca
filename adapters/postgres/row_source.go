package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"hisoutlier/domain/core"
	"hisoutlier/ports"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Postgres error codes raised when stored text cannot be cast to a number.
const (
	codeInvalidTextRepresentation = "22P02"
	codeInvalidCharacterForCast   = "22018"
	codeNumericValueOutOfRange    = "22003"
)

// RowSource executes named-parameter queries against PostgreSQL.
type RowSource struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewRowSource creates a row source. A positive timeout bounds every query.
func NewRowSource(db *sqlx.DB, timeout time.Duration) *RowSource {
	return &RowSource{db: db, timeout: timeout}
}

var _ ports.RowSource = (*RowSource)(nil)

func (s *RowSource) Query(ctx context.Context, q ports.Query, fn func(ports.Row) error) error {
	query, args, err := bindNamed(s.db, q)
	if err != nil {
		return err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return translateError(err)
	}
	defer rows.Close()

	for rows.Next() {
		m := make(map[string]any)
		if err := rows.MapScan(m); err != nil {
			return translateError(err)
		}
		if err := fn(mapRow(m)); err != nil {
			return err
		}
	}
	return translateError(rows.Err())
}

// bindNamed turns ":name" placeholders into positional driver arguments,
// expanding slices into IN lists. sqlx reads "::" as an escaped colon, so
// casts are doubled first to survive compilation.
func bindNamed(db *sqlx.DB, q ports.Query) (string, []any, error) {
	escaped := strings.ReplaceAll(q.SQL, "::", "::::")
	query, args, err := sqlx.Named(escaped, q.Params)
	if err != nil {
		return "", nil, fmt.Errorf("failed to bind query parameters: %w", err)
	}
	query, args, err = sqlx.In(query, args...)
	if err != nil {
		return "", nil, fmt.Errorf("failed to expand query parameters: %w", err)
	}
	return db.Rebind(query), args, nil
}

func translateError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case codeInvalidTextRepresentation, codeInvalidCharacterForCast, codeNumericValueOutOfRange:
			return core.NewDataIntegrityError(err)
		}
	}
	return fmt.Errorf("failed to query outlier values: %w", err)
}

// mapRow adapts a MapScan result to ports.Row.
type mapRow map[string]any

func (r mapRow) get(column string) (any, error) {
	v, ok := r[column]
	if !ok {
		return nil, fmt.Errorf("column %q not in result", column)
	}
	return v, nil
}

func (r mapRow) String(column string) (string, error) {
	v, err := r.get(column)
	if err != nil {
		return "", err
	}
	switch t := v.(type) {
	case string:
		return t, nil
	case []byte:
		return string(t), nil
	case nil:
		return "", fmt.Errorf("column %q is null", column)
	}
	return fmt.Sprint(v), nil
}

func (r mapRow) NullString(column string) (string, error) {
	v, err := r.get(column)
	if err != nil || v == nil {
		return "", err
	}
	return r.String(column)
}

func (r mapRow) Float(column string) (float64, error) {
	v, err := r.get(column)
	if err != nil {
		return 0, err
	}
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case []byte:
		return parseFloat(column, string(t))
	case string:
		return parseFloat(column, t)
	case nil:
		return 0, fmt.Errorf("column %q is null", column)
	}
	return 0, fmt.Errorf("column %q: unexpected type %T", column, v)
}

func (r mapRow) Bool(column string) (bool, error) {
	v, err := r.get(column)
	if err != nil {
		return false, err
	}
	switch t := v.(type) {
	case bool:
		return t, nil
	case nil:
		return false, nil
	case []byte:
		return strconv.ParseBool(string(t))
	case string:
		return strconv.ParseBool(t)
	}
	return false, fmt.Errorf("column %q: unexpected type %T", column, v)
}

func (r mapRow) Time(column string) (time.Time, error) {
	v, err := r.get(column)
	if err != nil {
		return time.Time{}, err
	}
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case []byte:
		return time.Parse(time.DateOnly, string(t))
	case string:
		return time.Parse(time.DateOnly, t)
	}
	return time.Time{}, fmt.Errorf("column %q: unexpected type %T", column, v)
}

func parseFloat(column, s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, core.NewDataIntegrityError(fmt.Errorf("column %q: %w", column, err))
	}
	return f, nil
}
