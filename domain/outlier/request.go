package outlier

import (
	"math"
	"strings"
	"time"

	"hisoutlier/domain/core"
)

const (
	DefaultThreshold       = 3.0
	DefaultMaxResults      = 500
	DefaultMaxResultsLimit = 10000
)

// Limits holds the defaults and caps applied when building requests.
type Limits struct {
	DefaultThreshold  float64
	DefaultMaxResults int
	MaxResultsLimit   int
}

// DefaultLimits returns the built-in defaults.
func DefaultLimits() Limits {
	return Limits{
		DefaultThreshold:  DefaultThreshold,
		DefaultMaxResults: DefaultMaxResults,
		MaxResultsLimit:   DefaultMaxResultsLimit,
	}
}

// RequestParams is the unvalidated input of an outlier detection request.
// Nil pointers and empty enums mean "use the default".
type RequestParams struct {
	DataElementIDs []string
	OrgUnits       []OrgUnit
	StartDate      time.Time
	EndDate        time.Time
	DataStartDate  *time.Time
	DataEndDate    *time.Time
	Algorithm      Algorithm
	Threshold      *float64
	OrderBy        OrderBy
	SortOrder      SortOrder
	MaxResults     *int
	SkipRounding   bool
}

// Request is a validated, read-only outlier detection request. The zero
// value is not usable; build one with NewRequest.
type Request struct {
	dataElementIDs []string
	orgUnits       []OrgUnit
	startDate      time.Time
	endDate        time.Time
	dataStartDate  time.Time
	dataEndDate    time.Time
	algorithm      Algorithm
	threshold      float64
	orderBy        OrderBy
	sortOrder      SortOrder
	maxResults     int
	skipRounding   bool
}

// NewRequest validates params with the default limits.
func NewRequest(p RequestParams) (*Request, error) {
	return DefaultLimits().NewRequest(p)
}

// NewRequest applies defaults, validates and freezes params. Any violation
// returns a *core.ValidationError naming the field.
func (l Limits) NewRequest(p RequestParams) (*Request, error) {
	r := &Request{
		dataElementIDs: dedupe(p.DataElementIDs),
		orgUnits:       append([]OrgUnit(nil), p.OrgUnits...),
		startDate:      p.StartDate,
		endDate:        p.EndDate,
		algorithm:      p.Algorithm,
		threshold:      l.DefaultThreshold,
		orderBy:        p.OrderBy,
		sortOrder:      p.SortOrder,
		maxResults:     l.DefaultMaxResults,
		skipRounding:   p.SkipRounding,
	}
	if r.algorithm == "" {
		r.algorithm = ZScore
	}
	if r.orderBy == "" {
		r.orderBy = OrderByMeanAbsDev
	}
	if r.sortOrder == "" {
		r.sortOrder = Desc
	}
	if p.Threshold != nil {
		r.threshold = *p.Threshold
	}
	if p.MaxResults != nil {
		r.maxResults = *p.MaxResults
	}

	r.dataStartDate = r.startDate
	if p.DataStartDate != nil {
		r.dataStartDate = *p.DataStartDate
	}
	r.dataEndDate = r.endDate
	if p.DataEndDate != nil {
		r.dataEndDate = *p.DataEndDate
	}

	if err := r.validate(l); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Request) validate(l Limits) error {
	if len(r.dataElementIDs) == 0 {
		return core.NewValidationError("dataElementIds", core.E2200)
	}
	if r.startDate.IsZero() || r.endDate.IsZero() {
		return core.NewValidationError("startDate", core.E2201)
	}
	if r.startDate.After(r.endDate) {
		return core.NewValidationError("startDate", core.E2202)
	}
	if len(r.orgUnits) == 0 {
		return core.NewValidationError("orgUnits", core.E2203)
	}
	for _, ou := range r.orgUnits {
		if !strings.HasPrefix(ou.Path, "/") {
			return core.NewValidationError("orgUnits", core.E2211, ou.ID)
		}
	}
	if !(r.threshold > 0) {
		return core.NewValidationError("threshold", core.E2204)
	}
	if r.maxResults <= 0 {
		return core.NewValidationError("maxResults", core.E2205)
	}
	if l.MaxResultsLimit > 0 && r.maxResults > l.MaxResultsLimit {
		return core.NewValidationError("maxResults", core.E2206, l.MaxResultsLimit)
	}
	if r.dataStartDate.After(r.dataEndDate) {
		return core.NewValidationError("dataStartDate", core.E2209)
	}
	switch r.algorithm {
	case ZScore, ModifiedZScore, MinMax:
	default:
		return core.NewValidationError("algorithm", core.E2212, "algorithm", r.algorithm)
	}
	switch r.orderBy {
	case OrderByMeanAbsDev, OrderByValue:
	case OrderByZScore, OrderByMiddleValue, OrderByStdDev:
		if r.algorithm == MinMax {
			return core.NewValidationError("orderBy", core.E2210, r.orderBy, r.algorithm)
		}
	default:
		return core.NewValidationError("orderBy", core.E2212, "orderBy", r.orderBy)
	}
	if r.sortOrder != Desc && r.sortOrder != Asc {
		return core.NewValidationError("sortOrder", core.E2212, "sortOrder", r.sortOrder)
	}
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func (r *Request) DataElementIDs() []string { return append([]string(nil), r.dataElementIDs...) }
func (r *Request) OrgUnits() []OrgUnit      { return append([]OrgUnit(nil), r.orgUnits...) }
func (r *Request) StartDate() time.Time     { return r.startDate }
func (r *Request) EndDate() time.Time       { return r.endDate }

// DataStartDate is the start of the baseline window; it equals StartDate
// unless a wider baseline was requested.
func (r *Request) DataStartDate() time.Time { return r.dataStartDate }
func (r *Request) DataEndDate() time.Time   { return r.dataEndDate }
func (r *Request) Algorithm() Algorithm     { return r.algorithm }
func (r *Request) Threshold() float64       { return r.threshold }
func (r *Request) OrderBy() OrderBy         { return r.orderBy }
func (r *Request) SortOrder() SortOrder     { return r.sortOrder }
func (r *Request) MaxResults() int          { return r.maxResults }
func (r *Request) SkipRounding() bool       { return r.skipRounding }

// InScope reports whether an org unit path is one of the request's org
// units or lies below one of them. Matching is per path segment.
func (r *Request) InScope(path string) bool {
	for _, ou := range r.orgUnits {
		if path == ou.Path || strings.HasPrefix(path, ou.Path+"/") {
			return true
		}
	}
	return false
}

// Present applies the request's output rounding to v. A rounded score is
// never shown below the threshold it passed.
func (r *Request) Present(v Value) Value {
	if r.skipRounding {
		return v
	}
	rounded := v.Rounded(2)
	if r.algorithm != MinMax && v.ZScore >= r.threshold && rounded.ZScore < r.threshold {
		rounded.ZScore = math.Ceil(v.ZScore*100) / 100
	}
	return rounded
}

// InReportingWindow reports whether a period lies in [StartDate, EndDate].
func (r *Request) InReportingWindow(start, end time.Time) bool {
	return !start.Before(r.startDate) && !end.After(r.endDate)
}

// InBaselineWindow reports whether a period lies in [DataStartDate, DataEndDate].
func (r *Request) InBaselineWindow(start, end time.Time) bool {
	return !start.Before(r.dataStartDate) && !end.After(r.dataEndDate)
}
