package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hisoutlier/domain/core"
	"hisoutlier/domain/outlier"
	"hisoutlier/internal"
	"hisoutlier/ports"

	"github.com/google/uuid"
)

// OutlierService runs outlier detection against a SQL row source: it builds
// the statement for the requested algorithm, executes it once and maps the
// rows. It holds no per call state.
type OutlierService struct {
	builders ports.QueryBuilderRegistry
	source   ports.RowSource
	mapper   *RowMapper
	logger   *internal.Logger
}

var _ ports.OutlierDetector = (*OutlierService)(nil)

// NewOutlierService creates the service. A nil mapper or logger uses the
// defaults.
func NewOutlierService(builders ports.QueryBuilderRegistry, source ports.RowSource, mapper *RowMapper, logger *internal.Logger) *OutlierService {
	if mapper == nil {
		mapper = NewRowMapper(nil)
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &OutlierService{
		builders: builders,
		source:   source,
		mapper:   mapper,
		logger:   logger,
	}
}

// Detect returns the ranked, capped outliers of req, or an error and no
// values. Data values the store cannot read as numbers surface as a
// *core.IllegalQueryError.
func (s *OutlierService) Detect(ctx context.Context, req *outlier.Request) ([]outlier.Value, error) {
	if req == nil {
		return nil, fmt.Errorf("outlier detection requires a request")
	}
	log := s.logger.With("request_id", requestID(ctx))

	builder, err := s.builders.Builder(req.Algorithm())
	if err != nil {
		return nil, err
	}
	query, err := builder.Build(req)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	values := make([]outlier.Value, 0)
	err = s.source.Query(ctx, query, func(row ports.Row) error {
		v, err := s.mapper.Map(row, req.Algorithm())
		if err != nil {
			return err
		}
		values = append(values, req.Present(v))
		return nil
	})
	if err != nil {
		if errors.Is(err, core.ErrDataIntegrity) {
			code := req.Algorithm().IllegalQueryCode()
			log.ErrorErr(err, "%s outlier detection failed on non-numeric data: %s", req.Algorithm(), code.Message())
			return nil, core.NewIllegalQueryError(code, err)
		}
		return nil, err
	}

	log.Debug("%s outlier detection returned %d values in %s", req.Algorithm(), len(values), time.Since(started))
	return values, nil
}

type requestIDKey struct{}

// WithRequestID tags ctx with id for log correlation.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id carried by ctx, if any.
func RequestID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok && id != ""
}

func requestID(ctx context.Context) string {
	if id, ok := RequestID(ctx); ok {
		return id
	}
	return uuid.NewString()
}
