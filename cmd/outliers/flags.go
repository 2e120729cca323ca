package main

import (
	"strings"
	"time"

	"hisoutlier/domain/core"
	"hisoutlier/domain/outlier"

	"github.com/spf13/cobra"
)

type requestFlags struct {
	dataElements []string
	orgUnitPaths []string
	start        string
	end          string
	dataStart    string
	dataEnd      string
	algorithm    string
	threshold    float64
	orderBy      string
	sortOrder    string
	maxResults   int
	skipRounding bool
}

func (f *requestFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringSliceVar(&f.dataElements, "de", nil, "Data element ids")
	fs.StringSliceVar(&f.orgUnitPaths, "ou", nil, "Org unit hierarchy paths, e.g. /ImspTQPwCqd/O6uvpzGd5pu")
	fs.StringVar(&f.start, "start", "", "Reporting window start date (YYYY-MM-DD)")
	fs.StringVar(&f.end, "end", "", "Reporting window end date (YYYY-MM-DD)")
	fs.StringVar(&f.dataStart, "data-start", "", "Baseline window start date (default --start)")
	fs.StringVar(&f.dataEnd, "data-end", "", "Baseline window end date (default --end)")
	fs.StringVar(&f.algorithm, "algorithm", string(outlier.ZScore), "Z_SCORE|MODIFIED_Z_SCORE|MIN_MAX")
	fs.Float64Var(&f.threshold, "threshold", outlier.DefaultThreshold, "Score threshold")
	fs.StringVar(&f.orderBy, "order-by", "", "Ranking column: Z_SCORE|MEAN_ABS_DEV|MIDDLE_VALUE|STD_DEV|VALUE")
	fs.StringVar(&f.sortOrder, "sort-order", "", "ASC|DESC")
	fs.IntVar(&f.maxResults, "max-results", outlier.DefaultMaxResults, "Maximum outliers to return")
	fs.BoolVar(&f.skipRounding, "skip-rounding", false, "Keep full precision in numeric results")
}

// params converts the flags into request params. Flags left at their
// defaults are passed as unset so configured limits apply.
func (f *requestFlags) params(cmd *cobra.Command) (outlier.RequestParams, error) {
	var (
		p   outlier.RequestParams
		err error
	)
	p.DataElementIDs = f.dataElements
	for _, path := range f.orgUnitPaths {
		p.OrgUnits = append(p.OrgUnits, orgUnitFromPath(path))
	}
	if p.StartDate, err = parseDate("start", f.start); err != nil {
		return p, err
	}
	if p.EndDate, err = parseDate("end", f.end); err != nil {
		return p, err
	}
	if f.dataStart != "" {
		t, err := parseDate("data-start", f.dataStart)
		if err != nil {
			return p, err
		}
		p.DataStartDate = &t
	}
	if f.dataEnd != "" {
		t, err := parseDate("data-end", f.dataEnd)
		if err != nil {
			return p, err
		}
		p.DataEndDate = &t
	}
	if p.Algorithm, err = outlier.ParseAlgorithm(f.algorithm); err != nil {
		return p, err
	}
	if f.orderBy != "" {
		if p.OrderBy, err = outlier.ParseOrderBy(f.orderBy); err != nil {
			return p, err
		}
	}
	if f.sortOrder != "" {
		if p.SortOrder, err = outlier.ParseSortOrder(f.sortOrder); err != nil {
			return p, err
		}
	}
	if cmd.Flags().Changed("threshold") {
		th := f.threshold
		p.Threshold = &th
	}
	if cmd.Flags().Changed("max-results") {
		n := f.maxResults
		p.MaxResults = &n
	}
	p.SkipRounding = f.skipRounding
	return p, nil
}

// orgUnitFromPath takes the unit id from the last path segment.
func orgUnitFromPath(path string) outlier.OrgUnit {
	path = strings.TrimSuffix(path, "/")
	if !strings.HasPrefix(path, "/") {
		return outlier.OrgUnit{ID: path}
	}
	return outlier.OrgUnit{ID: path[strings.LastIndex(path, "/")+1:], Path: path}
}

func parseDate(name, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, core.NewValidationError(name, core.E2212, name, s)
	}
	return t, nil
}
