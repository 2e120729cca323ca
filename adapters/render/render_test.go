package render

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"

	"hisoutlier/domain/outlier"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleValues() []outlier.Value {
	return []outlier.Value{{
		DataElementID:   "fbfJHSPpUQD",
		DataElementName: "ANC 1st visit",
		OrgUnitID:       "DiszpKrYNg8",
		OrgUnitName:     "Ngelehun | CHC",
		OrgUnitPath:     "/ImspTQPwCqd/DiszpKrYNg8",
		Period:          "202205",
		Value:           100,
		MiddleValue:     28,
		StdDev:          36,
		AbsDev:          72,
		ZScore:          2,
		LowerBound:      -44,
		UpperBound:      100,
	}}
}

func headerNames(g *Grid) []string {
	names := make([]string, len(g.Headers))
	for i, h := range g.Headers {
		names[i] = h.Name
	}
	return names
}

func TestNewGrid_Headers(t *testing.T) {
	z := NewGrid("", outlier.ZScore, nil)
	assert.Equal(t, []string{
		"dx", "dxname", "pe", "ou", "ouname", "oupath",
		"coc", "cocname", "aoc", "aocname", "value",
		"mean", "stddev", "absdev", "zscore", "lowerbound", "upperbound",
	}, headerNames(z))
	assert.Equal(t, 17, z.Width)
	assert.Equal(t, 0, z.Height)

	m := NewGrid("", outlier.ModifiedZScore, nil)
	assert.Contains(t, headerNames(m), "median")
	assert.Contains(t, headerNames(m), "medianabsdeviation")
	assert.Contains(t, headerNames(m), "modifiedzscore")
	assert.Equal(t, 17, m.Width)

	mm := NewGrid("", outlier.MinMax, nil)
	assert.NotContains(t, headerNames(mm), "zscore")
	assert.Contains(t, headerNames(mm), "absdev")
	assert.Equal(t, "upperbound", headerNames(mm)[len(mm.Headers)-1])
}

func TestNewGrid_Rows(t *testing.T) {
	g := NewGrid("Outliers", outlier.ZScore, sampleValues())
	require.Len(t, g.Rows, 1)
	row := g.Rows[0]
	assert.Equal(t, "fbfJHSPpUQD", row[0])
	assert.Equal(t, "202205", row[2])
	assert.Equal(t, "/ImspTQPwCqd/DiszpKrYNg8", row[5])
	assert.Equal(t, "100", row[10])
	assert.Equal(t, "-44", row[15])
}

func TestWrite_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "JSON", NewGrid("Outliers", outlier.ZScore, sampleValues())))

	var decoded Grid
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 1, decoded.Height)
	assert.Equal(t, "dx", decoded.Headers[0].Name)
}

func TestWrite_CSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, NewGrid("", outlier.ZScore, sampleValues())))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "dx", records[0][0])
	assert.Equal(t, "Ngelehun | CHC", records[1][5])
}

func TestWrite_XLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatXLSX, NewGrid("", outlier.ZScore, sampleValues())))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("outliers")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Data", rows[0][0])
	assert.Equal(t, "100", rows[1][11])
}

func TestWrite_HTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatHTML, NewGrid("Outliers", outlier.ZScore, sampleValues())))

	out := buf.String()
	assert.Contains(t, out, "<title>Outliers</title>")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "DiszpKrYNg8")
	assert.Contains(t, out, "ANC 1st visit")
}

func TestWrite_UnsupportedFormat(t *testing.T) {
	assert.Error(t, Write(&bytes.Buffer{}, "pdf", NewGrid("", outlier.ZScore, nil)))
}
