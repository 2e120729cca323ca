package ports

import (
	"context"

	"hisoutlier/domain/outlier"
)

// OutlierDetector finds the ranked outliers of a validated request. It
// returns either the complete capped list or an error, never a partial list.
type OutlierDetector interface {
	Detect(ctx context.Context, req *outlier.Request) ([]outlier.Value, error)
}
