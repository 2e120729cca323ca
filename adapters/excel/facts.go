package excel

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"hisoutlier/adapters/memory"
	"hisoutlier/domain/period"
)

var dateLayouts = []string{time.DateOnly, "2006/01/02", "01-02-06", time.RFC3339}

// LoadFacts reads a fact workbook (or CSV) into store. Workbooks may carry
// a minmax sheet with configured value ranges. It returns the number of
// facts and ranges loaded.
func LoadFacts(path string, store *memory.Store) (int, int, error) {
	reader := NewDataReader(path)

	data, err := reader.ReadSheet(FactsSheet)
	if err != nil {
		return 0, 0, err
	}
	if data == nil {
		return 0, 0, fmt.Errorf("%s has no %s sheet", path, FactsSheet)
	}
	facts := make([]memory.Fact, 0, len(data.Rows))
	for i, row := range data.Rows {
		f, err := parseFact(row)
		if err != nil {
			// Header is row 1.
			return 0, 0, fmt.Errorf("%s row %d: %w", path, i+2, err)
		}
		facts = append(facts, f)
	}

	var ranges []memory.MinMax
	if reader.fileType == "xlsx" {
		mm, err := reader.ReadSheet(MinMaxSheet)
		if err != nil {
			return 0, 0, err
		}
		if mm != nil {
			for i, row := range mm.Rows {
				r, err := parseMinMax(row)
				if err != nil {
					return 0, 0, fmt.Errorf("%s %s row %d: %w", path, MinMaxSheet, i+2, err)
				}
				ranges = append(ranges, r)
			}
		}
	}

	store.AddFacts(facts...)
	store.SetMinMax(ranges...)
	return len(facts), len(ranges), nil
}

func parseFact(row RawRowData) (memory.Fact, error) {
	f := memory.Fact{
		DataElementID:            row.Get(ColDataElement),
		DataElementName:          row.Get(ColDataElementName),
		ValueType:                strings.ToUpper(row.Get(ColValueType)),
		OrgUnitID:                row.Get(ColOrgUnit),
		OrgUnitName:              row.Get(ColOrgUnitName),
		OrgUnitPath:              row.Get(ColOrgUnitPath),
		CategoryOptionComboID:    row.Get(ColCategoryCombo),
		CategoryOptionComboName:  row.Get(ColCategoryComboName),
		AttributeOptionComboID:   row.Get(ColAttributeCombo),
		AttributeOptionComboName: row.Get(ColAttributeName),
		PeriodType:               row.Get(ColPeriodType),
		Value:                    row.Get(ColValue),
	}
	if f.DataElementID == "" || f.OrgUnitID == "" {
		return f, fmt.Errorf("%s and %s are required", ColDataElement, ColOrgUnit)
	}
	if f.ValueType == "" {
		f.ValueType = defaultValueType
	}
	if f.OrgUnitPath == "" {
		f.OrgUnitPath = "/" + f.OrgUnitID
	}
	if f.PeriodType == "" {
		f.PeriodType = "Monthly"
	}
	if _, ok := period.TypeByName(f.PeriodType); !ok {
		return f, fmt.Errorf("unknown period type %q", f.PeriodType)
	}

	var err error
	if f.PeriodStart, err = parseDate(row.Get(ColPeriodStart)); err != nil {
		return f, fmt.Errorf("%s: %w", ColPeriodStart, err)
	}
	f.PeriodEnd = f.PeriodStart
	if end := row.Get(ColPeriodEnd); end != "" {
		if f.PeriodEnd, err = parseDate(end); err != nil {
			return f, fmt.Errorf("%s: %w", ColPeriodEnd, err)
		}
	}
	if f.FollowUp, err = parseFlag(row.Get(ColFollowUp)); err != nil {
		return f, fmt.Errorf("%s: %w", ColFollowUp, err)
	}
	if f.Deleted, err = parseFlag(row.Get(ColDeleted)); err != nil {
		return f, fmt.Errorf("%s: %w", ColDeleted, err)
	}
	return f, nil
}

func parseMinMax(row RawRowData) (memory.MinMax, error) {
	r := memory.MinMax{
		DataElementID:         row.Get(ColDataElement),
		OrgUnitID:             row.Get(ColOrgUnit),
		CategoryOptionComboID: row.Get(ColCategoryCombo),
	}
	var err error
	if r.Min, err = strconv.ParseFloat(row.Get(ColMin), 64); err != nil {
		return r, fmt.Errorf("%s: %w", ColMin, err)
	}
	if r.Max, err = strconv.ParseFloat(row.Get(ColMax), 64); err != nil {
		return r, fmt.Errorf("%s: %w", ColMax, err)
	}
	if r.Min > r.Max {
		return r, fmt.Errorf("min %v is greater than max %v", r.Min, r.Max)
	}
	return r, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

func parseFlag(s string) (bool, error) {
	if s == "" {
		return false, nil
	}
	return strconv.ParseBool(s)
}
