package sqlgen

import (
	"fmt"

	"hisoutlier/domain/core"
	"hisoutlier/domain/outlier"
	"hisoutlier/ports"
)

// Options tune the statistical templates.
type Options struct {
	// ModifiedZScoreMAD divides modified z-scores by the median absolute
	// deviation instead of the standard deviation.
	ModifiedZScoreMAD bool
}

// Registry maps each algorithm to its builder for one dialect.
type Registry struct {
	dialect  Dialect
	builders map[outlier.Algorithm]Builder
}

func NewRegistry(d Dialect, opts Options) *Registry {
	r := &Registry{dialect: d, builders: make(map[outlier.Algorithm]Builder)}
	r.Register(NewZScoreBuilder(d))
	r.Register(NewModifiedZScoreBuilder(d, opts.ModifiedZScoreMAD))
	r.Register(NewMinMaxBuilder(d))
	return r
}

// Register adds or replaces the builder for b.Algorithm().
func (r *Registry) Register(b Builder) {
	r.builders[b.Algorithm()] = b
}

var _ ports.QueryBuilderRegistry = (*Registry)(nil)

func (r *Registry) Dialect() Dialect { return r.dialect }

// Builder returns the builder for alg or an error wrapping
// core.ErrUnsupportedAlgorithm.
func (r *Registry) Builder(alg outlier.Algorithm) (Builder, error) {
	b, ok := r.builders[alg]
	if !ok {
		return nil, fmt.Errorf("%w: %q for dialect %s", core.ErrUnsupportedAlgorithm, alg, r.dialect.Name())
	}
	return b, nil
}
