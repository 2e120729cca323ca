package excel

// RawRowData represents a row of raw sheet data as header-keyed strings
type RawRowData map[string]string

// ExcelData represents one sheet or CSV file
type ExcelData struct {
	Headers []string     // Column headers
	Rows    []RawRowData // Data rows
}

// Sheet names of a fact workbook.
const (
	FactsSheet  = "facts"
	MinMaxSheet = "minmax"
)

// Fact columns. Header matching ignores case.
const (
	ColDataElement       = "de"
	ColDataElementName   = "deName"
	ColValueType         = "valueType"
	ColOrgUnit           = "ou"
	ColOrgUnitName       = "ouName"
	ColOrgUnitPath       = "ouPath"
	ColCategoryCombo     = "coc"
	ColCategoryComboName = "cocName"
	ColAttributeCombo    = "aoc"
	ColAttributeName     = "aocName"
	ColPeriodType        = "periodType"
	ColPeriodStart       = "startDate"
	ColPeriodEnd         = "endDate"
	ColValue             = "value"
	ColFollowUp          = "followUp"
	ColDeleted           = "deleted"
	ColMin               = "min"
	ColMax               = "max"
)

// defaultValueType applies when a fact row has no valueType cell.
const defaultValueType = "NUMBER"
