package outlier

import (
	"math"
	"strings"

	"hisoutlier/domain/core"
)

// Algorithm selects how the baseline of a value group is computed.
type Algorithm string

const (
	ZScore         Algorithm = "Z_SCORE"
	ModifiedZScore Algorithm = "MODIFIED_Z_SCORE"
	MinMax         Algorithm = "MIN_MAX"
)

// Algorithms lists every supported algorithm.
var Algorithms = []Algorithm{ZScore, ModifiedZScore, MinMax}

// ParseAlgorithm accepts the algorithm name in any case.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch normalize(s) {
	case "Z_SCORE", "ZSCORE":
		return ZScore, nil
	case "MODIFIED_Z_SCORE", "MODIFIEDZSCORE":
		return ModifiedZScore, nil
	case "MIN_MAX", "MINMAX", "MIN_MAX_VALUES":
		return MinMax, nil
	}
	return "", core.NewValidationError("algorithm", core.E2212, "algorithm", s)
}

// IllegalQueryCode is the error code reported when the stored data of the
// algorithm's value groups cannot be evaluated as numbers.
func (a Algorithm) IllegalQueryCode() core.ErrorCode {
	if a == ModifiedZScore {
		return core.E2208
	}
	return core.E2207
}

// NumericValueTypes are the data element value types whose stored text is
// expected to parse as a number.
var NumericValueTypes = []string{
	"INTEGER",
	"INTEGER_POSITIVE",
	"INTEGER_NEGATIVE",
	"INTEGER_ZERO_OR_POSITIVE",
	"NUMBER",
	"UNIT_INTERVAL",
	"PERCENTAGE",
}

// IsNumericValueType reports whether valueType is one of NumericValueTypes.
func IsNumericValueType(valueType string) bool {
	for _, t := range NumericValueTypes {
		if t == valueType {
			return true
		}
	}
	return false
}

// OrderBy is the ranking key of the result list.
type OrderBy string

const (
	OrderByMeanAbsDev  OrderBy = "MEAN_ABS_DEV"
	OrderByZScore      OrderBy = "Z_SCORE"
	OrderByValue       OrderBy = "VALUE"
	OrderByMiddleValue OrderBy = "MIDDLE_VALUE"
	OrderByStdDev      OrderBy = "STD_DEV"
)

// ParseOrderBy accepts the key names used by the reporting API, including
// the algorithm specific aliases (ABS_DEV, MODIFIED_Z_SCORE, MEAN, MEDIAN).
func ParseOrderBy(s string) (OrderBy, error) {
	switch normalize(s) {
	case "MEAN_ABS_DEV", "ABS_DEV", "ABSDEV":
		return OrderByMeanAbsDev, nil
	case "Z_SCORE", "ZSCORE", "MODIFIED_Z_SCORE", "MODIFIEDZSCORE":
		return OrderByZScore, nil
	case "VALUE":
		return OrderByValue, nil
	case "MIDDLE_VALUE", "MEAN", "MEDIAN":
		return OrderByMiddleValue, nil
	case "STD_DEV", "STDDEV":
		return OrderByStdDev, nil
	}
	return "", core.NewValidationError("orderBy", core.E2212, "orderBy", s)
}

// SortOrder is the direction of the ranking.
type SortOrder string

const (
	Desc SortOrder = "DESC"
	Asc  SortOrder = "ASC"
)

func ParseSortOrder(s string) (SortOrder, error) {
	switch normalize(s) {
	case "DESC":
		return Desc, nil
	case "ASC":
		return Asc, nil
	}
	return "", core.NewValidationError("sortOrder", core.E2212, "sortOrder", s)
}

func normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// OrgUnit is an organisation unit scope. Path is the materialized hierarchy
// path ("/root/region/facility"); every unit whose path starts with it is in
// scope.
type OrgUnit struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	Path string `json:"path"`
}

// Value is one detected outlier.
type Value struct {
	DataElementID            string `json:"de"`
	DataElementName          string `json:"deName"`
	OrgUnitID                string `json:"ou"`
	OrgUnitName              string `json:"ouName"`
	OrgUnitPath              string `json:"ouPath,omitempty"`
	CategoryOptionComboID    string `json:"coc"`
	CategoryOptionComboName  string `json:"cocName"`
	AttributeOptionComboID   string `json:"aoc"`
	AttributeOptionComboName string `json:"aocName"`
	Period                   string `json:"pe"`

	Value              float64 `json:"value"`
	MiddleValue        float64 `json:"middleValue,omitempty"`
	StdDev             float64 `json:"stdDev,omitempty"`
	MedianAbsDeviation float64 `json:"medianAbsDeviation,omitempty"`
	AbsDev             float64 `json:"absDev"`
	ZScore             float64 `json:"zScore,omitempty"`
	LowerBound         float64 `json:"lowerBound"`
	UpperBound         float64 `json:"upperBound"`
	FollowUp           bool    `json:"followUp"`
}

// SortKey returns the measure the given order key ranks by.
func (v Value) SortKey(o OrderBy) float64 {
	switch o {
	case OrderByZScore:
		return v.ZScore
	case OrderByValue:
		return v.Value
	case OrderByMiddleValue:
		return v.MiddleValue
	case OrderByStdDev:
		return v.StdDev
	default:
		return v.AbsDev
	}
}

// Rounded returns a copy with every measure rounded to the given decimals.
func (v Value) Rounded(decimals int) Value {
	p := math.Pow10(decimals)
	round := func(x float64) float64 { return math.Round(x*p) / p }

	v.Value = round(v.Value)
	v.MiddleValue = round(v.MiddleValue)
	v.StdDev = round(v.StdDev)
	v.MedianAbsDeviation = round(v.MedianAbsDeviation)
	v.AbsDev = round(v.AbsDev)
	v.ZScore = round(v.ZScore)
	v.LowerBound = round(v.LowerBound)
	v.UpperBound = round(v.UpperBound)
	return v
}
