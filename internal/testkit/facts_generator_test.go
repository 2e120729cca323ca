package testkit

import (
	"context"
	"testing"

	"hisoutlier/adapters/memory"
	"hisoutlier/domain/core"
	"hisoutlier/domain/outlier"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactGenerator_Deterministic(t *testing.T) {
	config := DefaultFactConfig()
	a := NewFactGenerator(config).Generate()
	b := NewFactGenerator(config).Generate()

	assert.Equal(t, a, b)
	assert.Len(t, a.Facts, config.DataElementCount*config.OrgUnitCount*config.Months)
	assert.Len(t, a.Ranges, config.DataElementCount*config.OrgUnitCount)
}

func TestFactGenerator_SpikesAreDetected(t *testing.T) {
	config := DefaultFactConfig()
	config.SpikeRate = 0.02
	d := NewFactGenerator(config).Generate()
	require.NotEmpty(t, d.Spikes)

	store := memory.NewStore()
	d.Load(store)

	maxResults := 10000
	req, err := outlier.NewRequest(outlier.RequestParams{
		DataElementIDs: []string{"de001", "de002", "de003"},
		OrgUnits:       []outlier.OrgUnit{{ID: "root", Path: "/root"}},
		StartDate:      config.StartDate,
		EndDate:        config.StartDate.AddDate(0, config.Months, -1),
		Algorithm:      outlier.ModifiedZScore,
		MaxResults:     &maxResults,
	})
	require.NoError(t, err)

	values, err := memory.NewDetector(store, memory.Options{ModifiedZScoreMAD: true}, nil).Detect(context.Background(), req)
	require.NoError(t, err)

	found := make(map[string]bool, len(values))
	for _, v := range values {
		found[v.DataElementID+"/"+v.OrgUnitID+"/"+v.Period] = true
	}
	for _, s := range d.Spikes {
		assert.True(t, found[s.DataElementID+"/"+s.OrgUnitID+"/"+s.PeriodStart.Format("200601")], "spike %+v not reported", s)
	}
}

func TestFactGenerator_NonNumericValues(t *testing.T) {
	config := DefaultFactConfig()
	config.OrgUnitCount = 1
	config.SpikeRate = 0
	config.NonNumericRate = 1
	store := memory.NewStore()
	NewFactGenerator(config).Generate().Load(store)

	req, err := outlier.NewRequest(outlier.RequestParams{
		DataElementIDs: []string{"de001"},
		OrgUnits:       []outlier.OrgUnit{{ID: "root", Path: "/root"}},
		StartDate:      config.StartDate,
		EndDate:        config.StartDate.AddDate(1, 0, 0),
	})
	require.NoError(t, err)

	_, err = memory.NewDetector(store, memory.Options{}, nil).Detect(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, core.E2207, core.CodeOf(err))
}
