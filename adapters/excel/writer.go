package excel

import (
	"fmt"
	"strconv"
	"time"

	"hisoutlier/adapters/memory"

	"github.com/xuri/excelize/v2"
)

var factColumns = []string{
	ColDataElement, ColDataElementName, ColValueType,
	ColOrgUnit, ColOrgUnitName, ColOrgUnitPath,
	ColCategoryCombo, ColCategoryComboName, ColAttributeCombo, ColAttributeName,
	ColPeriodType, ColPeriodStart, ColPeriodEnd,
	ColValue, ColFollowUp, ColDeleted,
}

var minMaxColumns = []string{ColDataElement, ColOrgUnit, ColCategoryCombo, ColMin, ColMax}

// WriteFacts writes a fact workbook readable by LoadFacts. The minmax sheet
// is only added when ranges is not empty.
func WriteFacts(path string, facts []memory.Fact, ranges []memory.MinMax) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", FactsSheet); err != nil {
		return err
	}
	if err := writeRow(f, FactsSheet, 1, toCells(factColumns)); err != nil {
		return err
	}
	for i, fact := range facts {
		row := []any{
			fact.DataElementID, fact.DataElementName, fact.ValueType,
			fact.OrgUnitID, fact.OrgUnitName, fact.OrgUnitPath,
			fact.CategoryOptionComboID, fact.CategoryOptionComboName,
			fact.AttributeOptionComboID, fact.AttributeOptionComboName,
			fact.PeriodType, fact.PeriodStart.Format(time.DateOnly), fact.PeriodEnd.Format(time.DateOnly),
			fact.Value, strconv.FormatBool(fact.FollowUp), strconv.FormatBool(fact.Deleted),
		}
		if err := writeRow(f, FactsSheet, i+2, row); err != nil {
			return err
		}
	}

	if len(ranges) > 0 {
		if _, err := f.NewSheet(MinMaxSheet); err != nil {
			return err
		}
		if err := writeRow(f, MinMaxSheet, 1, toCells(minMaxColumns)); err != nil {
			return err
		}
		for i, r := range ranges {
			row := []any{r.DataElementID, r.OrgUnitID, r.CategoryOptionComboID, r.Min, r.Max}
			if err := writeRow(f, MinMaxSheet, i+2, row); err != nil {
				return err
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, cells []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func toCells(names []string) []any {
	cells := make([]any, len(names))
	for i, n := range names {
		cells[i] = n
	}
	return cells
}
