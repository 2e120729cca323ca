package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"hisoutlier/domain/core"
	"hisoutlier/domain/outlier"
	"hisoutlier/domain/period"
	"hisoutlier/domain/stats"
	"hisoutlier/ports"
)

// Options tune the statistical algorithms.
type Options struct {
	ModifiedZScoreMAD bool
}

// Detector evaluates outlier requests over a Store with the same semantics
// as the SQL builders, computing statistics in process.
type Detector struct {
	store   *Store
	opts    Options
	periods *period.Formatter
}

var _ ports.OutlierDetector = (*Detector)(nil)

// NewDetector creates a detector; a nil formatter means Gregorian periods.
func NewDetector(store *Store, opts Options, periods *period.Formatter) *Detector {
	if periods == nil {
		periods = period.NewFormatter(nil)
	}
	return &Detector{store: store, opts: opts, periods: periods}
}

type groupKey struct {
	de, ou, coc, aoc string
}

type candidate struct {
	fact  Fact
	value float64
}

func (d *Detector) Detect(ctx context.Context, req *outlier.Request) ([]outlier.Value, error) {
	if req == nil {
		return nil, fmt.Errorf("outlier detection requires a request")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	facts, ranges := d.store.snapshot()
	des := make(map[string]bool)
	for _, id := range req.DataElementIDs() {
		des[id] = true
	}

	var candidates []candidate
	baselines := make(map[groupKey][]float64)
	for _, f := range facts {
		if f.Deleted || !des[f.DataElementID] || !outlier.IsNumericValueType(f.ValueType) || !req.InScope(f.OrgUnitPath) {
			continue
		}
		inReporting := req.InReportingWindow(f.PeriodStart, f.PeriodEnd)
		inBaseline := req.Algorithm() != outlier.MinMax && req.InBaselineWindow(f.PeriodStart, f.PeriodEnd)
		if !inReporting && !inBaseline {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(f.Value), 64)
		if err != nil {
			code := req.Algorithm().IllegalQueryCode()
			return nil, core.NewIllegalQueryError(code, core.NewDataIntegrityError(
				fmt.Errorf("data value %q of %s at %s: %w", f.Value, f.DataElementID, f.OrgUnitID, err)))
		}
		if inReporting {
			candidates = append(candidates, candidate{fact: f, value: v})
		}
		if inBaseline {
			k := keyOf(f)
			baselines[k] = append(baselines[k], v)
		}
	}

	summaries := make(map[groupKey]stats.Summary, len(baselines))
	for k, sample := range baselines {
		s, err := stats.Summarize(sample)
		if err != nil {
			return nil, err
		}
		summaries[k] = s
	}

	var values []outlier.Value
	for _, c := range candidates {
		v, ok, err := d.evaluate(req, c, summaries, ranges)
		if err != nil {
			return nil, err
		}
		if ok {
			values = append(values, v)
		}
	}

	rank(values, req.OrderBy(), req.SortOrder())
	if len(values) > req.MaxResults() {
		values = values[:req.MaxResults()]
	}

	out := make([]outlier.Value, 0, len(values))
	for _, v := range values {
		out = append(out, req.Present(v))
	}
	return out, nil
}

// evaluate scores one candidate. ok is false when the value is not an
// outlier or its group has no usable baseline.
func (d *Detector) evaluate(req *outlier.Request, c candidate, summaries map[groupKey]stats.Summary, ranges map[minMaxKey]MinMax) (outlier.Value, bool, error) {
	f := c.fact
	v := outlier.Value{
		DataElementID:            f.DataElementID,
		DataElementName:          f.DataElementName,
		OrgUnitID:                f.OrgUnitID,
		OrgUnitName:              f.OrgUnitName,
		OrgUnitPath:              f.OrgUnitPath,
		CategoryOptionComboID:    f.CategoryOptionComboID,
		CategoryOptionComboName:  f.CategoryOptionComboName,
		AttributeOptionComboID:   f.AttributeOptionComboID,
		AttributeOptionComboName: f.AttributeOptionComboName,
		Value:                    c.value,
		FollowUp:                 f.FollowUp,
	}

	switch req.Algorithm() {
	case outlier.MinMax:
		r, ok := ranges[minMaxKey{f.DataElementID, f.OrgUnitID, f.CategoryOptionComboID}]
		if !ok || (c.value >= r.Min && c.value <= r.Max) {
			return v, false, nil
		}
		v.LowerBound, v.UpperBound = r.Min, r.Max
		v.AbsDev = stats.DistanceFromRange(c.value, r.Min, r.Max)

	case outlier.ZScore, outlier.ModifiedZScore:
		s, ok := summaries[keyOf(f)]
		if !ok || s.Min == s.Max {
			// Empty or constant baseline: the group cannot produce outliers.
			return v, false, nil
		}
		middle, dispersion := s.Mean, s.StdDev
		var (
			score float64
			err   error
		)
		switch {
		case req.Algorithm() == outlier.ZScore:
			score, err = stats.ZScore(c.value, s.Mean, s.StdDev)
		case d.opts.ModifiedZScoreMAD:
			middle, dispersion = s.Median, stats.MADScale*s.MedianAbsDeviation
			score, err = stats.MADModifiedZScore(c.value, s.Median, s.MedianAbsDeviation)
		default:
			middle = s.Median
			score, err = stats.ModifiedZScore(c.value, s.Median, s.StdDev)
		}
		if err != nil {
			// A zero MAD with spread elsewhere in the group.
			return v, false, nil
		}
		if score < req.Threshold() {
			return v, false, nil
		}
		v.MiddleValue = middle
		v.StdDev = s.StdDev
		if req.Algorithm() == outlier.ModifiedZScore {
			v.MedianAbsDeviation = s.MedianAbsDeviation
		}
		v.AbsDev = math.Abs(c.value - middle)
		v.ZScore = score
		v.LowerBound, v.UpperBound = stats.Bounds(middle, dispersion, req.Threshold())

	default:
		return v, false, fmt.Errorf("%w: %q", core.ErrUnsupportedAlgorithm, req.Algorithm())
	}

	label, err := d.periods.ISOPeriod(f.PeriodType, f.PeriodStart)
	if err != nil {
		return v, false, err
	}
	v.Period = label
	return v, true, nil
}

// rank sorts by the order key; ties keep input order.
func rank(values []outlier.Value, by outlier.OrderBy, order outlier.SortOrder) {
	sort.SliceStable(values, func(i, j int) bool {
		a, b := values[i].SortKey(by), values[j].SortKey(by)
		if order == outlier.Asc {
			return a < b
		}
		return a > b
	})
}

func keyOf(f Fact) groupKey {
	return groupKey{f.DataElementID, f.OrgUnitID, f.CategoryOptionComboID, f.AttributeOptionComboID}
}
