package render

import (
	"strconv"

	"hisoutlier/domain/outlier"
)

// Header is one grid column: a stable name and a display label.
type Header struct {
	Name   string `json:"name"`
	Column string `json:"column"`
	Type   string `json:"valueType"`
}

// Grid is the tabular form of a detection result shared by every format.
type Grid struct {
	Title   string     `json:"title,omitempty"`
	Headers []Header   `json:"headers"`
	Rows    [][]string `json:"rows"`
	Height  int        `json:"height"`
	Width   int        `json:"width"`
}

type column struct {
	header Header
	value  func(v outlier.Value) string
}

func text(name, label string, f func(outlier.Value) string) column {
	return column{Header{name, label, "TEXT"}, f}
}

func number(name, label string, f func(outlier.Value) float64) column {
	return column{Header{name, label, "NUMBER"}, func(v outlier.Value) string {
		return strconv.FormatFloat(f(v), 'f', -1, 64)
	}}
}

var (
	identity = []column{
		text("dx", "Data", func(v outlier.Value) string { return v.DataElementID }),
		text("dxname", "Data name", func(v outlier.Value) string { return v.DataElementName }),
		text("pe", "Period", func(v outlier.Value) string { return v.Period }),
		text("ou", "Organisation unit", func(v outlier.Value) string { return v.OrgUnitID }),
		text("ouname", "Organisation unit name", func(v outlier.Value) string { return v.OrgUnitName }),
		text("oupath", "Organisation unit path", func(v outlier.Value) string { return v.OrgUnitPath }),
		text("coc", "Category option combo", func(v outlier.Value) string { return v.CategoryOptionComboID }),
		text("cocname", "Category option combo name", func(v outlier.Value) string { return v.CategoryOptionComboName }),
		text("aoc", "Attribute option combo", func(v outlier.Value) string { return v.AttributeOptionComboID }),
		text("aocname", "Attribute option combo name", func(v outlier.Value) string { return v.AttributeOptionComboName }),
		number("value", "Value", func(v outlier.Value) float64 { return v.Value }),
	}
	middleValue = func(v outlier.Value) float64 { return v.MiddleValue }
	absDev      = number("absdev", "Absolute deviation", func(v outlier.Value) float64 { return v.AbsDev })
	score       = func(v outlier.Value) float64 { return v.ZScore }
	bounds      = []column{
		number("lowerbound", "Lower boundary", func(v outlier.Value) float64 { return v.LowerBound }),
		number("upperbound", "Upper boundary", func(v outlier.Value) float64 { return v.UpperBound }),
	}
)

func columnsFor(alg outlier.Algorithm) []column {
	cols := append([]column(nil), identity...)
	switch alg {
	case outlier.ModifiedZScore:
		cols = append(cols,
			number("median", "Median", middleValue),
			number("medianabsdeviation", "Median absolute deviation", func(v outlier.Value) float64 { return v.MedianAbsDeviation }),
			absDev,
			number("modifiedzscore", "Modified Z-score", score),
		)
	case outlier.MinMax:
		cols = append(cols, absDev)
	default:
		cols = append(cols,
			number("mean", "Mean", middleValue),
			number("stddev", "Standard deviation", func(v outlier.Value) float64 { return v.StdDev }),
			absDev,
			number("zscore", "Z-score", score),
		)
	}
	return append(cols, bounds...)
}

// NewGrid lays values out with the columns of alg.
func NewGrid(title string, alg outlier.Algorithm, values []outlier.Value) *Grid {
	cols := columnsFor(alg)
	g := &Grid{Title: title, Headers: make([]Header, len(cols)), Rows: make([][]string, 0, len(values))}
	for i, c := range cols {
		g.Headers[i] = c.header
	}
	for _, v := range values {
		row := make([]string, len(cols))
		for i, c := range cols {
			row[i] = c.value(v)
		}
		g.Rows = append(g.Rows, row)
	}
	g.Height, g.Width = len(g.Rows), len(g.Headers)
	return g
}
