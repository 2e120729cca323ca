package sqlgen

import (
	"fmt"
	"strconv"
	"strings"

	"hisoutlier/domain/core"
)

// Dialect isolates every backend specific SQL fragment. Adding a backend
// means implementing Dialect; the algorithm templates stay untouched.
type Dialect interface {
	Name() string
	Quote(ident string) string
	CastNumeric(expr string) string
	CastDate(expr string) string
	// PercentileDisc is the discrete percentile aggregate over orderExpr.
	PercentileDisc(fraction float64, orderExpr string) string
	StdDevPop(expr string) string
	Least(a, b string) string
	// PathPrefix matches column against the LIKE pattern bound to param.
	PathPrefix(column, param string) string
	Limit(param string) string
}

// DialectByName returns the dialect registered under name.
func DialectByName(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "postgres", "postgresql", "":
		return Postgres{}, nil
	case "ansi":
		return ANSI{}, nil
	}
	return nil, fmt.Errorf("%w: %q", core.ErrUnsupportedDialect, name)
}

// Postgres renders PostgreSQL syntax.
type Postgres struct{}

func (Postgres) Name() string { return "postgres" }

func (Postgres) Quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func (Postgres) CastNumeric(expr string) string {
	return parenthesize(expr) + "::double precision"
}

func (Postgres) CastDate(expr string) string {
	return parenthesize(expr) + "::date"
}

func (Postgres) PercentileDisc(fraction float64, orderExpr string) string {
	return fmt.Sprintf("percentile_disc(%s) within group (order by %s)", formatFloat(fraction), orderExpr)
}

func (Postgres) StdDevPop(expr string) string {
	return "stddev_pop(" + expr + ")"
}

func (Postgres) Least(a, b string) string {
	return "least(" + a + ", " + b + ")"
}

func (Postgres) PathPrefix(column, param string) string {
	return column + " like :" + param + ` escape '\'`
}

func (Postgres) Limit(param string) string {
	return "limit :" + param
}

// ANSI renders SQL:2008 syntax for engines without PostgreSQL extensions.
type ANSI struct{}

func (ANSI) Name() string { return "ansi" }

func (ANSI) Quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func (ANSI) CastNumeric(expr string) string {
	return "CAST(" + expr + " AS DOUBLE PRECISION)"
}

func (ANSI) CastDate(expr string) string {
	return "CAST(" + expr + " AS DATE)"
}

func (ANSI) PercentileDisc(fraction float64, orderExpr string) string {
	return fmt.Sprintf("PERCENTILE_DISC(%s) WITHIN GROUP (ORDER BY %s)", formatFloat(fraction), orderExpr)
}

func (ANSI) StdDevPop(expr string) string {
	return "STDDEV_POP(" + expr + ")"
}

func (ANSI) Least(a, b string) string {
	return "CASE WHEN " + a + " <= " + b + " THEN " + a + " ELSE " + b + " END"
}

func (ANSI) PathPrefix(column, param string) string {
	return column + " LIKE :" + param + ` ESCAPE '\'`
}

func (ANSI) Limit(param string) string {
	return "FETCH FIRST :" + param + " ROWS ONLY"
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// parenthesize wraps anything that is not a plain column reference, so a
// postfix cast binds to the whole expression.
func parenthesize(expr string) string {
	for _, r := range expr {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '.', r == '"':
		default:
			return "(" + expr + ")"
		}
	}
	return expr
}
