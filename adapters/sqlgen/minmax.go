package sqlgen

import (
	"fmt"

	"hisoutlier/domain/outlier"
	"hisoutlier/ports"
)

// MinMaxBuilder range checks candidates against the configured per value
// group bounds in minmaxdataelement. No statistics are computed and the
// baseline window is not used.
type MinMaxBuilder struct {
	base
}

func NewMinMaxBuilder(d Dialect) *MinMaxBuilder {
	return &MinMaxBuilder{base: base{d: d}}
}

func (b *MinMaxBuilder) Algorithm() outlier.Algorithm { return outlier.MinMax }

func (b *MinMaxBuilder) Build(req *outlier.Request) (ports.Query, error) {
	if err := b.check(req, outlier.MinMax); err != nil {
		return ports.Query{}, err
	}
	order, err := b.orderBy(req, map[outlier.OrderBy]string{
		outlier.OrderByMeanAbsDev: ColAbsDev,
		outlier.OrderByValue:      ColValue,
	})
	if err != nil {
		return ports.Query{}, err
	}

	d := b.d
	value := d.CastNumeric("dv.value")
	sql := fmt.Sprintf(`with candidates as (
  select de.uid as de_uid, de.name as de_name,
    ou.uid as ou_uid, ou.name as ou_name, ou.%[1]s as ou_path,
    coc.uid as coc_uid, coc.name as coc_name,
    aoc.uid as aoc_uid, aoc.name as aoc_name,
    pe.startdate as pe_start_date, pt.name as pt_name,
    %[2]s as value, dv.followup as follow_up,
    mm.minimumvalue as lower_bound, mm.maximumvalue as upper_bound
  from datavalue dv
  inner join minmaxdataelement mm on dv.dataelementid = mm.dataelementid
    and dv.sourceid = mm.sourceid
    and dv.categoryoptioncomboid = mm.categoryoptioncomboid
  inner join dataelement de on dv.dataelementid = de.dataelementid
  inner join categoryoptioncombo coc on dv.categoryoptioncomboid = coc.categoryoptioncomboid
  inner join categoryoptioncombo aoc on dv.attributeoptioncomboid = aoc.categoryoptioncomboid
  inner join period pe on dv.periodid = pe.periodid
  inner join periodtype pt on pe.periodtypeid = pt.periodtypeid
  inner join organisationunit ou on dv.sourceid = ou.organisationunitid
  where %[3]s
)
select c.*,
  %[4]s as abs_dev
from candidates c
where c.value < c.lower_bound or c.value > c.upper_bound
%[5]s
%[6]s`,
		d.Quote("path"), value, b.filters(req, ParamStartDate, ParamEndDate),
		d.Least("abs(c.value - c.lower_bound)", "abs(c.value - c.upper_bound)"),
		order, d.Limit(ParamMaxResults))

	return ports.Query{SQL: sql, Params: b.params(req)}, nil
}
