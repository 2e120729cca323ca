package ports

import "hisoutlier/domain/outlier"

// QueryBuilder renders the single detection statement of one algorithm.
type QueryBuilder interface {
	Algorithm() outlier.Algorithm
	Build(req *outlier.Request) (Query, error)
}

// QueryBuilderRegistry resolves the builder for an algorithm. Unknown
// algorithms return an error wrapping core.ErrUnsupportedAlgorithm.
type QueryBuilderRegistry interface {
	Builder(alg outlier.Algorithm) (QueryBuilder, error)
}
