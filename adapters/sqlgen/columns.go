package sqlgen

import "hisoutlier/domain/outlier"

// Result column names. They form the contract between the select lists built
// here and the row mapper; renaming one is a breaking change on both sides.
const (
	ColDataElementID   = "de_uid"
	ColDataElementName = "de_name"
	ColOrgUnitID       = "ou_uid"
	ColOrgUnitName     = "ou_name"
	ColOrgUnitPath     = "ou_path"
	ColCocID           = "coc_uid"
	ColCocName         = "coc_name"
	ColAocID           = "aoc_uid"
	ColAocName         = "aoc_name"
	ColPeriodStartDate = "pe_start_date"
	ColPeriodTypeName  = "pt_name"
	ColValue           = "value"
	ColFollowUp        = "follow_up"
	ColMiddleValue     = "middle_value"
	ColStdDev          = "std_dev"
	ColMedianAbsDev    = "median_abs_dev"
	ColAbsDev          = "abs_dev"
	ColZScore          = "z_score"
	ColLowerBound      = "lower_bound"
	ColUpperBound      = "upper_bound"
)

// Parameter names bound by every builder.
const (
	ParamDataElementIDs = "data_element_ids"
	ParamValueTypes     = "value_types"
	ParamStartDate      = "start_date"
	ParamEndDate        = "end_date"
	ParamDataStartDate  = "data_start_date"
	ParamDataEndDate    = "data_end_date"
	ParamThreshold      = "threshold"
	ParamMaxResults     = "max_results"
	paramOrgUnitPath    = "ou_path_"
	paramOrgUnitBelow   = "ou_below_"
)

// NumericValueTypes restricts candidate and baseline rows to numeric data
// elements.
var NumericValueTypes = outlier.NumericValueTypes
