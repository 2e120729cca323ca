package excel

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"hisoutlier/adapters/memory"
	"hisoutlier/domain/outlier"
	"hisoutlier/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, facts [][]any, minmax [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName("Sheet1", FactsSheet))
	for i, row := range facts {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, f.SetSheetRow(FactsSheet, cell, &row))
	}
	if minmax != nil {
		_, err := f.NewSheet(MinMaxSheet)
		require.NoError(t, err)
		for i, row := range minmax {
			cell, _ := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, f.SetSheetRow(MinMaxSheet, cell, &row))
		}
	}

	path := filepath.Join(t.TempDir(), "facts.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

var factHeader = []any{"de", "deName", "ou", "ouPath", "coc", "aoc", "periodType", "startDate", "endDate", "value", "followUp"}

func TestLoadFacts_Workbook(t *testing.T) {
	facts := [][]any{factHeader}
	for i, v := range []string{"25", "15", "4"} {
		start := time.Date(2022, time.Month(i+1), 1, 0, 0, 0, 0, time.UTC)
		facts = append(facts, []any{"deA", "ANC", "ou1", "/root/ou1", "coc1", "aoc1", "Monthly",
			start.Format(time.DateOnly), start.AddDate(0, 1, -1).Format(time.DateOnly), v, "false"})
	}
	minmax := [][]any{{"de", "ou", "coc", "min", "max"}, {"deA", "ou1", "coc1", "10", "20"}}
	path := writeWorkbook(t, facts, minmax)

	store := memory.NewStore()
	nFacts, nRanges, err := LoadFacts(path, store)
	require.NoError(t, err)
	assert.Equal(t, 3, nFacts)
	assert.Equal(t, 1, nRanges)

	req, err := outlier.NewRequest(outlier.RequestParams{
		DataElementIDs: []string{"deA"},
		OrgUnits:       []outlier.OrgUnit{{ID: "root", Path: "/root"}},
		StartDate:      time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2022, 12, 31, 0, 0, 0, 0, time.UTC),
		Algorithm:      outlier.MinMax,
	})
	require.NoError(t, err)

	values, err := memory.NewDetector(store, memory.Options{}, nil).Detect(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.Equal(t, "202203", values[0].Period)
	assert.Equal(t, "202201", values[1].Period)
}

func TestLoadFacts_CSVDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "facts.csv")
	require.NoError(t, os.WriteFile(path, []byte("DE,OU,startDate,value\ndeA,ou1,2022-01-01,12\n,,,\n"), 0o644))

	store := memory.NewStore()
	n, ranges, err := LoadFacts(path, store)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 0, ranges)
	assert.Equal(t, 1, store.Len())
}

func TestLoadFacts_Errors(t *testing.T) {
	_, _, err := LoadFacts(filepath.Join(t.TempDir(), "missing.xlsx"), memory.NewStore())
	assert.Error(t, err)

	path := writeWorkbook(t, [][]any{factHeader, {"deA", "", "ou1", "", "", "", "Fortnightly", "2022-01-01", "", "1", ""}}, nil)
	_, _, err = LoadFacts(path, memory.NewStore())
	assert.ErrorContains(t, err, "row 2")

	path = writeWorkbook(t, [][]any{factHeader, {"deA", "", "ou1", "", "", "", "Monthly", "first of may", "", "1", ""}}, nil)
	_, _, err = LoadFacts(path, memory.NewStore())
	assert.ErrorContains(t, err, "startDate")

	path = writeWorkbook(t, [][]any{factHeader}, [][]any{{"de", "ou", "coc", "min", "max"}, {"deA", "ou1", "coc1", "30", "20"}})
	_, _, err = LoadFacts(path, memory.NewStore())
	assert.ErrorContains(t, err, "minmax")
}

func TestWriteFacts_LoadsBack(t *testing.T) {
	config := testkit.DefaultFactConfig()
	config.OrgUnitCount = 2
	config.Months = 6
	d := testkit.NewFactGenerator(config).Generate()

	path := filepath.Join(t.TempDir(), "generated.xlsx")
	require.NoError(t, WriteFacts(path, d.Facts, d.Ranges))

	store := memory.NewStore()
	nFacts, nRanges, err := LoadFacts(path, store)
	require.NoError(t, err)
	assert.Equal(t, len(d.Facts), nFacts)
	assert.Equal(t, len(d.Ranges), nRanges)
	assert.Equal(t, len(d.Facts), store.Len())
}
