package app

import (
	"fmt"
	"time"

	"hisoutlier/adapters/sqlgen"
	"hisoutlier/domain/outlier"
	"hisoutlier/domain/period"
	"hisoutlier/ports"
)

// RowMapper builds outlier values from result rows by column name. The
// column names in adapters/sqlgen are the contract with the builders.
type RowMapper struct {
	periods *period.Formatter
}

// NewRowMapper creates a mapper; a nil formatter means Gregorian periods.
func NewRowMapper(periods *period.Formatter) *RowMapper {
	if periods == nil {
		periods = period.NewFormatter(nil)
	}
	return &RowMapper{periods: periods}
}

// Map reads one row produced by the builder of alg.
func (m *RowMapper) Map(row ports.Row, alg outlier.Algorithm) (outlier.Value, error) {
	var (
		v   outlier.Value
		err error
	)
	r := rowReader{row: row}

	v.DataElementID = r.str(sqlgen.ColDataElementID)
	v.DataElementName = r.nullStr(sqlgen.ColDataElementName)
	v.OrgUnitID = r.str(sqlgen.ColOrgUnitID)
	v.OrgUnitName = r.nullStr(sqlgen.ColOrgUnitName)
	v.OrgUnitPath = r.nullStr(sqlgen.ColOrgUnitPath)
	v.CategoryOptionComboID = r.str(sqlgen.ColCocID)
	v.CategoryOptionComboName = r.nullStr(sqlgen.ColCocName)
	v.AttributeOptionComboID = r.str(sqlgen.ColAocID)
	v.AttributeOptionComboName = r.nullStr(sqlgen.ColAocName)
	v.Value = r.float(sqlgen.ColValue)
	v.AbsDev = r.float(sqlgen.ColAbsDev)
	v.LowerBound = r.float(sqlgen.ColLowerBound)
	v.UpperBound = r.float(sqlgen.ColUpperBound)
	v.FollowUp = r.boolean(sqlgen.ColFollowUp)

	switch alg {
	case outlier.ZScore:
		v.MiddleValue = r.float(sqlgen.ColMiddleValue)
		v.StdDev = r.float(sqlgen.ColStdDev)
		v.ZScore = r.float(sqlgen.ColZScore)
	case outlier.ModifiedZScore:
		v.MiddleValue = r.float(sqlgen.ColMiddleValue)
		v.StdDev = r.float(sqlgen.ColStdDev)
		v.MedianAbsDeviation = r.float(sqlgen.ColMedianAbsDev)
		v.ZScore = r.float(sqlgen.ColZScore)
	case outlier.MinMax:
	default:
		return outlier.Value{}, fmt.Errorf("no row mapping for algorithm %q", alg)
	}

	periodType := r.str(sqlgen.ColPeriodTypeName)
	start := r.date(sqlgen.ColPeriodStartDate)
	if r.err != nil {
		return outlier.Value{}, r.err
	}
	if v.Period, err = m.periods.ISOPeriod(periodType, start); err != nil {
		return outlier.Value{}, err
	}
	return v, nil
}

// rowReader keeps the first column error so Map reads like a field list.
type rowReader struct {
	row ports.Row
	err error
}

func (r *rowReader) str(col string) string {
	if r.err != nil {
		return ""
	}
	s, err := r.row.String(col)
	r.err = wrapColumn(col, err)
	return s
}

func (r *rowReader) nullStr(col string) string {
	if r.err != nil {
		return ""
	}
	s, err := r.row.NullString(col)
	r.err = wrapColumn(col, err)
	return s
}

func (r *rowReader) float(col string) float64 {
	if r.err != nil {
		return 0
	}
	f, err := r.row.Float(col)
	r.err = wrapColumn(col, err)
	return f
}

func (r *rowReader) boolean(col string) bool {
	if r.err != nil {
		return false
	}
	b, err := r.row.Bool(col)
	r.err = wrapColumn(col, err)
	return b
}

func (r *rowReader) date(col string) time.Time {
	if r.err != nil {
		return time.Time{}
	}
	t, err := r.row.Time(col)
	r.err = wrapColumn(col, err)
	return t
}

func wrapColumn(col string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("failed to map column %s: %w", col, err)
}
