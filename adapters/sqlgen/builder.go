package sqlgen

import (
	"fmt"
	"strconv"
	"strings"

	"hisoutlier/domain/core"
	"hisoutlier/domain/outlier"
	"hisoutlier/ports"
)

// Builder turns a validated request into one parameterized statement for a
// single algorithm.
type Builder = ports.QueryBuilder

// base holds what every algorithm template shares: the dialect, the common
// parameters and the scope and window predicates.
type base struct {
	d Dialect
}

func (b base) check(req *outlier.Request, alg outlier.Algorithm) error {
	if req == nil {
		return fmt.Errorf("nil request")
	}
	if req.Algorithm() != alg {
		return fmt.Errorf("%w: %s builder cannot run %s", core.ErrUnsupportedAlgorithm, alg, req.Algorithm())
	}
	return nil
}

func (b base) params(req *outlier.Request) map[string]any {
	p := map[string]any{
		ParamDataElementIDs: req.DataElementIDs(),
		ParamValueTypes:     NumericValueTypes,
		ParamStartDate:      req.StartDate(),
		ParamEndDate:        req.EndDate(),
		ParamDataStartDate:  req.DataStartDate(),
		ParamDataEndDate:    req.DataEndDate(),
		ParamThreshold:      req.Threshold(),
		ParamMaxResults:     req.MaxResults(),
	}
	for i, ou := range req.OrgUnits() {
		p[paramOrgUnitPath+strconv.Itoa(i)] = ou.Path
		p[paramOrgUnitBelow+strconv.Itoa(i)] = escapeLike(ou.Path) + "/%"
	}
	return p
}

// scope ORs one predicate per org unit, matching the unit's own path and
// every path below it. The descendant pattern ends in "/%" so /a does not
// cover /ab.
func (b base) scope(req *outlier.Request, pathColumn string) string {
	preds := make([]string, len(req.OrgUnits()))
	for i := range preds {
		n := strconv.Itoa(i)
		preds[i] = pathColumn + " = :" + paramOrgUnitPath + n + " or " + b.d.PathPrefix(pathColumn, paramOrgUnitBelow+n)
	}
	return "(" + strings.Join(preds, " or ") + ")"
}

func (b base) window(startParam, endParam string) string {
	return fmt.Sprintf("pe.startdate >= %s and pe.enddate <= %s",
		b.d.CastDate(":"+startParam), b.d.CastDate(":"+endParam))
}

// filters are the predicates shared by candidate and baseline selections;
// only the period window differs.
func (b base) filters(req *outlier.Request, startParam, endParam string) string {
	return strings.Join([]string{
		"de.uid in (:" + ParamDataElementIDs + ")",
		"de.valuetype in (:" + ParamValueTypes + ")",
		b.window(startParam, endParam),
		b.scope(req, "ou."+b.d.Quote("path")),
		"dv.deleted is false",
	}, "\n    and ")
}

func (b base) orderBy(req *outlier.Request, columns map[outlier.OrderBy]string) (string, error) {
	col, ok := columns[req.OrderBy()]
	if !ok {
		return "", core.NewValidationError("orderBy", core.E2210, req.OrderBy(), req.Algorithm())
	}
	dir := "desc"
	if req.SortOrder() == outlier.Asc {
		dir = "asc"
	}
	return "order by " + col + " " + dir, nil
}

const groupKeys = "dataelementid, sourceid, categoryoptioncomboid, attributeoptioncomboid"

func joinOnGroupKeys(left, right string) string {
	keys := strings.Split(groupKeys, ", ")
	conds := make([]string, len(keys))
	for i, k := range keys {
		conds[i] = fmt.Sprintf("%s.%s = %s.%s", left, k, right, k)
	}
	return strings.Join(conds, " and ")
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
