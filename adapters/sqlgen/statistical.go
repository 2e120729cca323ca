package sqlgen

import (
	"fmt"
	"strings"

	"hisoutlier/domain/outlier"
	"hisoutlier/ports"
)

// statistical describes the algorithm specific fragments of the shared
// baseline/candidate statement.
type statistical struct {
	base
	// middle is the aggregate computing the group's central value.
	middle string
	// withMAD adds a second baseline pass computing the median absolute
	// deviation around the middle value, selected as median_abs_dev.
	withMAD bool
	// score and dispersion are expressions over the aliases c, s and m.
	score      string
	dispersion string
}

const candidatesCTE = `candidates as (
  select dv.dataelementid, dv.sourceid, dv.categoryoptioncomboid, dv.attributeoptioncomboid,
    de.uid as de_uid, de.name as de_name,
    ou.uid as ou_uid, ou.name as ou_name, ou.%[1]s as ou_path,
    coc.uid as coc_uid, coc.name as coc_name,
    aoc.uid as aoc_uid, aoc.name as aoc_name,
    pe.startdate as pe_start_date, pt.name as pt_name,
    %[2]s as value, dv.followup as follow_up
  from datavalue dv
  inner join dataelement de on dv.dataelementid = de.dataelementid
  inner join categoryoptioncombo coc on dv.categoryoptioncomboid = coc.categoryoptioncomboid
  inner join categoryoptioncombo aoc on dv.attributeoptioncomboid = aoc.categoryoptioncomboid
  inner join period pe on dv.periodid = pe.periodid
  inner join periodtype pt on pe.periodtypeid = pt.periodtypeid
  inner join organisationunit ou on dv.sourceid = ou.organisationunitid
  where %[3]s
)`

const baselineCTE = `baseline as (
  select dv.dataelementid, dv.sourceid, dv.categoryoptioncomboid, dv.attributeoptioncomboid,
    %[1]s as value
  from datavalue dv
  inner join dataelement de on dv.dataelementid = de.dataelementid
  inner join period pe on dv.periodid = pe.periodid
  inner join organisationunit ou on dv.sourceid = ou.organisationunitid
  where %[2]s
)`

func (st statistical) build(req *outlier.Request) (ports.Query, error) {
	d := st.d
	order, err := st.orderBy(req, map[outlier.OrderBy]string{
		outlier.OrderByMeanAbsDev:  ColAbsDev,
		outlier.OrderByZScore:      ColZScore,
		outlier.OrderByValue:       ColValue,
		outlier.OrderByMiddleValue: ColMiddleValue,
		outlier.OrderByStdDev:      ColStdDev,
	})
	if err != nil {
		return ports.Query{}, err
	}

	ctes := []string{
		fmt.Sprintf(candidatesCTE, d.Quote("path"), d.CastNumeric("dv.value"),
			st.filters(req, ParamStartDate, ParamEndDate)),
		fmt.Sprintf(baselineCTE, d.CastNumeric("dv.value"),
			st.filters(req, ParamDataStartDate, ParamDataEndDate)),
		fmt.Sprintf(`stats as (
  select %[1]s,
    %[2]s as middle_value,
    %[3]s as std_dev
  from baseline
  group by %[1]s
)`, groupKeys, st.middle, d.StdDevPop("value")),
	}

	selectMAD := ""
	joinMAD := ""
	if st.withMAD {
		ctes = append(ctes, fmt.Sprintf(`mad as (
  select s.dataelementid, s.sourceid, s.categoryoptioncomboid, s.attributeoptioncomboid,
    %[1]s as median_abs_dev
  from baseline b
  inner join stats s on %[2]s
  group by s.dataelementid, s.sourceid, s.categoryoptioncomboid, s.attributeoptioncomboid
)`, d.PercentileDisc(0.5, "abs(b.value - s.middle_value)"), joinOnGroupKeys("b", "s")))
		selectMAD = "\n  m.median_abs_dev as median_abs_dev,"
		joinMAD = "\ninner join mad m on " + joinOnGroupKeys("c", "m")
	}

	var sb strings.Builder
	sb.WriteString("with ")
	sb.WriteString(strings.Join(ctes, ",\n"))
	fmt.Fprintf(&sb, `
select c.de_uid, c.de_name, c.ou_uid, c.ou_name, c.ou_path,
  c.coc_uid, c.coc_name, c.aoc_uid, c.aoc_name,
  c.pe_start_date, c.pt_name, c.value, c.follow_up,
  s.middle_value as middle_value,
  s.std_dev as std_dev,%[1]s
  abs(c.value - s.middle_value) as abs_dev,
  %[2]s as z_score,
  s.middle_value - (%[3]s * :threshold) as lower_bound,
  s.middle_value + (%[3]s * :threshold) as upper_bound
from candidates c
inner join stats s on %[4]s%[5]s
where %[3]s <> 0
  and %[2]s >= :threshold
%[6]s
%[7]s`,
		selectMAD, st.score, st.dispersion, joinOnGroupKeys("c", "s"), joinMAD,
		order, d.Limit(ParamMaxResults))

	return ports.Query{SQL: sb.String(), Params: st.params(req)}, nil
}
