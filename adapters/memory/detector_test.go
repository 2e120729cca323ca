package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"hisoutlier/domain/core"
	"hisoutlier/domain/outlier"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	deANC  = "fbfJHSPpUQD"
	deBCG  = "s46m5MS0hxu"
	ouRoot = "/ImspTQPwCqd"
	coc    = "HllvX50cXC0"
)

func monthlyFact(de, ou string, month time.Month, value string) Fact {
	start := time.Date(2022, month, 1, 0, 0, 0, 0, time.UTC)
	return Fact{
		DataElementID:          de,
		DataElementName:        de + " name",
		ValueType:              "INTEGER",
		OrgUnitID:              ou,
		OrgUnitName:            ou + " name",
		OrgUnitPath:            ouRoot + "/" + ou,
		CategoryOptionComboID:  coc,
		AttributeOptionComboID: coc,
		PeriodType:             "Monthly",
		PeriodStart:            start,
		PeriodEnd:              start.AddDate(0, 1, -1),
		Value:                  value,
	}
}

func series(de, ou string, values ...string) []Fact {
	facts := make([]Fact, len(values))
	for i, v := range values {
		facts[i] = monthlyFact(de, ou, time.Month(i+1), v)
	}
	return facts
}

func request(t *testing.T, alg outlier.Algorithm, threshold float64, mutate ...func(*outlier.RequestParams)) *outlier.Request {
	t.Helper()
	p := outlier.RequestParams{
		DataElementIDs: []string{deANC, deBCG},
		OrgUnits:       []outlier.OrgUnit{{ID: "ImspTQPwCqd", Path: ouRoot}},
		StartDate:      time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2022, 12, 31, 0, 0, 0, 0, time.UTC),
		Algorithm:      alg,
		Threshold:      &threshold,
		SkipRounding:   true,
	}
	for _, m := range mutate {
		m(&p)
	}
	req, err := outlier.NewRequest(p)
	require.NoError(t, err)
	return req
}

func TestDetector_ZScoreWorkedExample(t *testing.T) {
	store := NewStore()
	store.AddFacts(series(deANC, "ou1", "10", "10", "10", "10", "100")...)
	d := NewDetector(store, Options{}, nil)

	values, err := d.Detect(context.Background(), request(t, outlier.ZScore, 2.0))
	require.NoError(t, err)
	require.Len(t, values, 1)

	v := values[0]
	assert.Equal(t, 100.0, v.Value)
	assert.Equal(t, 28.0, v.MiddleValue)
	assert.Equal(t, 36.0, v.StdDev)
	assert.Equal(t, 72.0, v.AbsDev)
	assert.Equal(t, 2.0, v.ZScore)
	assert.Equal(t, -44.0, v.LowerBound)
	assert.Equal(t, 100.0, v.UpperBound)
	assert.Equal(t, "202205", v.Period)

	values, err = d.Detect(context.Background(), request(t, outlier.ZScore, 2.5))
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestDetector_ScopeStopsAtPathSegment(t *testing.T) {
	store := NewStore()
	store.AddFacts(series(deANC, "ou1", "10", "10", "10", "10", "100")...)
	store.AddFacts(series(deANC, "ou10", "10", "10", "10", "10", "100")...)

	values, err := NewDetector(store, Options{}, nil).Detect(context.Background(), request(t, outlier.ZScore, 2.0, func(p *outlier.RequestParams) {
		p.OrgUnits = []outlier.OrgUnit{{ID: "ou1", Path: ouRoot + "/ou1"}}
	}))
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, "ou1", values[0].OrgUnitID)
}

func TestDetector_ThresholdInvariant(t *testing.T) {
	store := NewStore()
	store.AddFacts(series(deANC, "ou1", "12", "15", "9", "11", "40", "13", "10", "55", "12", "14")...)
	store.AddFacts(series(deBCG, "ou2", "100", "104", "98", "250", "101", "99", "97", "103")...)

	for _, alg := range []outlier.Algorithm{outlier.ZScore, outlier.ModifiedZScore} {
		for _, th := range []float64{0.5, 1.0, 1.5, 2.0, 2.5} {
			t.Run(fmt.Sprintf("%s/%v", alg, th), func(t *testing.T) {
				values, err := NewDetector(store, Options{}, nil).Detect(context.Background(), request(t, alg, th))
				require.NoError(t, err)
				for _, v := range values {
					assert.GreaterOrEqual(t, v.ZScore, th)
				}
			})
		}
	}
}

func TestDetector_ZeroDispersionExcluded(t *testing.T) {
	store := NewStore()
	store.AddFacts(series(deANC, "ou1", "7", "7", "7", "7", "7", "7")...)
	// The same group with a huge reporting value outside the baseline window
	// still has zero baseline dispersion.
	late := monthlyFact(deANC, "ou1", time.December, "7000")
	late.PeriodStart = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	late.PeriodEnd = time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC)
	store.AddFacts(late)

	for _, alg := range []outlier.Algorithm{outlier.ZScore, outlier.ModifiedZScore} {
		for _, useMAD := range []bool{false, true} {
			d := NewDetector(store, Options{ModifiedZScoreMAD: useMAD}, nil)
			values, err := d.Detect(context.Background(), request(t, alg, 0.1, func(p *outlier.RequestParams) {
				ds, de := p.StartDate, p.EndDate
				p.DataStartDate, p.DataEndDate = &ds, &de
				p.EndDate = time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC)
			}))
			require.NoError(t, err)
			assert.Empty(t, values, "%s mad=%v", alg, useMAD)
		}
	}

	// Identical fractional values whose float mean is off by an ulp.
	fractional := NewStore()
	fractional.AddFacts(series(deANC, "ou1", "0.1", "0.1", "0.1")...)
	for _, alg := range []outlier.Algorithm{outlier.ZScore, outlier.ModifiedZScore} {
		for _, useMAD := range []bool{false, true} {
			values, err := NewDetector(fractional, Options{ModifiedZScoreMAD: useMAD}, nil).Detect(context.Background(), request(t, alg, 1.0))
			require.NoError(t, err)
			assert.Empty(t, values, "%s mad=%v", alg, useMAD)
		}
	}
}

func TestDetector_Ordering(t *testing.T) {
	store := NewStore()
	store.AddFacts(series(deANC, "ou1", "10", "12", "11", "60", "9", "10", "13", "11")...)
	store.AddFacts(series(deANC, "ou2", "100", "120", "110", "900", "90", "105", "400", "101")...)
	store.AddFacts(series(deBCG, "ou3", "5", "6", "5", "7", "30", "6", "5", "4")...)

	for _, by := range []outlier.OrderBy{outlier.OrderByMeanAbsDev, outlier.OrderByZScore, outlier.OrderByValue, outlier.OrderByMiddleValue, outlier.OrderByStdDev} {
		for _, dir := range []outlier.SortOrder{outlier.Desc, outlier.Asc} {
			t.Run(string(by)+"/"+string(dir), func(t *testing.T) {
				values, err := NewDetector(store, Options{}, nil).Detect(context.Background(), request(t, outlier.ZScore, 1.0, func(p *outlier.RequestParams) {
					p.OrderBy, p.SortOrder = by, dir
				}))
				require.NoError(t, err)
				require.NotEmpty(t, values)
				for i := 1; i < len(values); i++ {
					prev, cur := values[i-1].SortKey(by), values[i].SortKey(by)
					if dir == outlier.Desc {
						assert.GreaterOrEqual(t, prev, cur)
					} else {
						assert.LessOrEqual(t, prev, cur)
					}
				}
			})
		}
	}
}

func TestDetector_MaxResultsCap(t *testing.T) {
	store := NewStore()
	for i := 0; i < 10; i++ {
		store.AddFacts(series(deANC, fmt.Sprintf("ou%d", i), "10", "11", "9", "10", "95", "10")...)
	}
	d := NewDetector(store, Options{}, nil)

	all, err := d.Detect(context.Background(), request(t, outlier.ZScore, 2.0))
	require.NoError(t, err)
	require.Len(t, all, 10)

	for _, max := range []int{1, 3, 10, 50} {
		m := max
		values, err := d.Detect(context.Background(), request(t, outlier.ZScore, 2.0, func(p *outlier.RequestParams) {
			p.MaxResults = &m
		}))
		require.NoError(t, err)
		assert.LessOrEqual(t, len(values), m)
		assert.Len(t, values, min(m, 10))
	}
}

func TestDetector_MinMax(t *testing.T) {
	store := NewStore()
	store.AddFacts(
		monthlyFact(deANC, "ou1", time.January, "25"),
		monthlyFact(deANC, "ou1", time.February, "15"),
		monthlyFact(deANC, "ou1", time.March, "4"),
		monthlyFact(deBCG, "ou1", time.March, "1000"),
	)
	store.SetMinMax(MinMax{DataElementID: deANC, OrgUnitID: "ou1", CategoryOptionComboID: coc, Min: 10, Max: 20})
	d := NewDetector(store, Options{}, nil)

	values, err := d.Detect(context.Background(), request(t, outlier.MinMax, 3.0))
	require.NoError(t, err)
	require.Len(t, values, 2)

	assert.Equal(t, 4.0, values[0].Value)
	assert.Equal(t, 6.0, values[0].AbsDev)
	assert.Equal(t, 25.0, values[1].Value)
	assert.Equal(t, 20.0, values[1].UpperBound)
	assert.Equal(t, 10.0, values[1].LowerBound)
	assert.Equal(t, 5.0, values[1].AbsDev)
	for _, v := range values {
		assert.NotEqual(t, 15.0, v.Value)
	}
}

func TestDetector_ModifiedZScore(t *testing.T) {
	store := NewStore()
	store.AddFacts(series(deANC, "ou1", "9", "10", "10", "11", "714")...)

	values, err := NewDetector(store, Options{}, nil).Detect(context.Background(), request(t, outlier.ModifiedZScore, 1.5))
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, 10.0, values[0].MiddleValue)
	assert.Equal(t, 1.0, values[0].MedianAbsDeviation)
	assert.InDelta(t, 704/values[0].StdDev, values[0].ZScore, 1e-9)

	values, err = NewDetector(store, Options{ModifiedZScoreMAD: true}, nil).Detect(context.Background(), request(t, outlier.ModifiedZScore, 3.5))
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.InDelta(t, 0.6745*704, values[0].ZScore, 1e-9)
	assert.InDelta(t, 10-3.5*1.4826, values[0].LowerBound, 1e-9)
}

func TestDetector_ScopeAndFilters(t *testing.T) {
	store := NewStore()
	store.AddFacts(series(deANC, "ou1", "10", "10", "10", "10", "100")...)

	outside := series(deANC, "ou9", "10", "10", "10", "10", "100")
	for i := range outside {
		outside[i].OrgUnitPath = "/OtherRoot/ou9"
	}
	deleted := series(deANC, "ou2", "10", "10", "10", "10", "100")
	for i := range deleted {
		deleted[i].Deleted = true
	}
	text := series(deANC, "ou3", "a", "b", "c")
	for i := range text {
		text[i].ValueType = "TEXT"
	}
	store.AddFacts(outside...)
	store.AddFacts(deleted...)
	store.AddFacts(text...)

	values, err := NewDetector(store, Options{}, nil).Detect(context.Background(), request(t, outlier.ZScore, 2.0))
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, "ou1", values[0].OrgUnitID)
}

func TestDetector_NonNumericValue(t *testing.T) {
	store := NewStore()
	store.AddFacts(series(deANC, "ou1", "10", "1O", "12")...)

	for alg, code := range map[outlier.Algorithm]core.ErrorCode{
		outlier.ZScore:         core.E2207,
		outlier.ModifiedZScore: core.E2208,
	} {
		_, err := NewDetector(store, Options{}, nil).Detect(context.Background(), request(t, alg, 2.0))
		require.Error(t, err)
		assert.True(t, core.IsIllegalQueryError(err))
		assert.Equal(t, code, core.CodeOf(err))
	}
}

func TestDetector_Rounding(t *testing.T) {
	store := NewStore()
	store.AddFacts(series(deANC, "ou1", "10", "11", "10", "12", "10", "40")...)

	values, err := NewDetector(store, Options{}, nil).Detect(context.Background(), request(t, outlier.ZScore, 1.0, func(p *outlier.RequestParams) {
		p.SkipRounding = false
	}))
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, 15.5, values[0].MiddleValue)
	assert.Equal(t, 10.98, values[0].StdDev)
}

func TestDetector_RoundedScoreNotBelowThreshold(t *testing.T) {
	store := NewStore()
	store.AddFacts(series(deANC, "ou1", "10", "11", "10", "12", "10", "40")...)

	// The outlier scores 2.2311; plain rounding would show 2.23, under the threshold.
	values, err := NewDetector(store, Options{}, nil).Detect(context.Background(), request(t, outlier.ZScore, 2.2305, func(p *outlier.RequestParams) {
		p.SkipRounding = false
	}))
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, 2.24, values[0].ZScore)
	assert.Equal(t, 40.0, values[0].Value)
}

func TestDetector_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewDetector(NewStore(), Options{}, nil).Detect(ctx, request(t, outlier.ZScore, 2.0))
	assert.ErrorIs(t, err, context.Canceled)
}
