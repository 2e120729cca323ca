package sqlgen

import (
	"hisoutlier/domain/outlier"
	"hisoutlier/ports"
)

// ZScoreBuilder compares candidates against the baseline mean and
// population standard deviation.
type ZScoreBuilder struct {
	st statistical
}

func NewZScoreBuilder(d Dialect) *ZScoreBuilder {
	return &ZScoreBuilder{st: statistical{
		base:       base{d: d},
		middle:     "avg(value)",
		score:      "abs(c.value - s.middle_value) / nullif(s.std_dev, 0)",
		dispersion: "s.std_dev",
	}}
}

func (b *ZScoreBuilder) Algorithm() outlier.Algorithm { return outlier.ZScore }

func (b *ZScoreBuilder) Build(req *outlier.Request) (ports.Query, error) {
	if err := b.st.check(req, outlier.ZScore); err != nil {
		return ports.Query{}, err
	}
	return b.st.build(req)
}
