package sqlgen

import (
	"fmt"

	"hisoutlier/domain/outlier"
	"hisoutlier/domain/stats"
	"hisoutlier/ports"
)

// ModifiedZScoreBuilder compares candidates against the baseline median.
// By default the deviation is divided by the population standard deviation.
// With useMAD the textbook form 0.6745*|x-median|/MAD is used and the bounds
// widen by 1.4826*MAD per threshold unit.
type ModifiedZScoreBuilder struct {
	st     statistical
	useMAD bool
}

func NewModifiedZScoreBuilder(d Dialect, useMAD bool) *ModifiedZScoreBuilder {
	st := statistical{
		base:       base{d: d},
		middle:     d.PercentileDisc(0.5, "value"),
		withMAD:    true,
		score:      "abs(c.value - s.middle_value) / nullif(s.std_dev, 0)",
		dispersion: "s.std_dev",
	}
	if useMAD {
		st.score = fmt.Sprintf("%s * abs(c.value - s.middle_value) / nullif(m.median_abs_dev, 0)",
			formatFloat(stats.MADZScoreFactor))
		st.dispersion = fmt.Sprintf("(%s * m.median_abs_dev)", formatFloat(stats.MADScale))
	}
	return &ModifiedZScoreBuilder{st: st, useMAD: useMAD}
}

func (b *ModifiedZScoreBuilder) Algorithm() outlier.Algorithm { return outlier.ModifiedZScore }

// UsesMAD reports whether scores are normalized by the median absolute
// deviation rather than the standard deviation.
func (b *ModifiedZScoreBuilder) UsesMAD() bool { return b.useMAD }

func (b *ModifiedZScoreBuilder) Build(req *outlier.Request) (ports.Query, error) {
	if err := b.st.check(req, outlier.ModifiedZScore); err != nil {
		return ports.Query{}, err
	}
	return b.st.build(req)
}
