package api

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"
	"time"

	"hisoutlier/adapters/render"
	"hisoutlier/app"
	"hisoutlier/domain/core"
	"hisoutlier/domain/outlier"
	"hisoutlier/internal"
	"hisoutlier/internal/errors"
	"hisoutlier/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader carries the id used in response and log correlation.
const RequestIDHeader = "X-Request-ID"

// OutlierHandler serves outlier detection requests
type OutlierHandler struct {
	detector ports.OutlierDetector
	limits   outlier.Limits
	logger   *internal.Logger
}

// NewOutlierHandler creates a new outlier handler
func NewOutlierHandler(detector ports.OutlierDetector, limits outlier.Limits, logger *internal.Logger) *OutlierHandler {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &OutlierHandler{detector: detector, limits: limits, logger: logger}
}

// NewRouter wires the outlier endpoints into a gin engine.
func NewRouter(h *OutlierHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/api/outlierDetection", h.GetOutliers)
	return r
}

// GetOutliers validates the query parameters, runs detection and writes the
// result grid in the requested format.
func (h *OutlierHandler) GetOutliers(c *gin.Context) {
	requestID := c.GetHeader(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header(RequestIDHeader, requestID)

	format := strings.ToLower(c.DefaultQuery("format", render.FormatJSON))
	contentType, ok := render.ContentTypes[format]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"errorCode": errors.CodeInvalidInput, "message": "Unsupported format: " + format})
		return
	}

	params, err := parseParams(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	req, err := h.limits.NewRequest(params)
	if err != nil {
		h.writeError(c, err)
		return
	}

	ctx := app.WithRequestID(c.Request.Context(), requestID)
	values, err := h.detector.Detect(ctx, req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	grid := render.NewGrid("Outlier values", req.Algorithm(), values)
	if format == render.FormatJSON {
		c.JSON(http.StatusOK, grid)
		return
	}
	var buf bytes.Buffer
	if err := render.Write(&buf, format, grid); err != nil {
		h.writeError(c, err)
		return
	}
	if format == render.FormatCSV || format == render.FormatXLSX {
		c.Header("Content-Disposition", "attachment; filename=outliers."+format)
	}
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func (h *OutlierHandler) writeError(c *gin.Context, err error) {
	code := string(core.CodeOf(err))
	switch {
	case core.IsValidationError(err):
		var field string
		if verr, ok := err.(*core.ValidationError); ok {
			field = verr.Field
		}
		c.JSON(http.StatusBadRequest, gin.H{"errorCode": code, "message": err.Error(), "field": field})
	case core.IsIllegalQueryError(err):
		c.JSON(http.StatusConflict, gin.H{"errorCode": code, "message": err.Error()})
	default:
		h.logger.With("request_id", c.Writer.Header().Get(RequestIDHeader)).ErrorErr(err, "outlier detection failed")
		c.JSON(http.StatusInternalServerError, gin.H{"errorCode": errors.GetCode(err), "message": "Outlier detection failed"})
	}
}

// parseParams reads the query string. Repeated parameters and comma
// separated lists are both accepted for de and ou; ou values are org unit
// hierarchy paths.
func parseParams(c *gin.Context) (outlier.RequestParams, error) {
	var (
		p   outlier.RequestParams
		err error
	)
	p.DataElementIDs = listParam(c, "de")
	for _, path := range listParam(c, "ou") {
		p.OrgUnits = append(p.OrgUnits, orgUnitFromPath(path))
	}

	if p.StartDate, err = dateParam(c, "startDate"); err != nil {
		return p, err
	}
	if p.EndDate, err = dateParam(c, "endDate"); err != nil {
		return p, err
	}
	if p.DataStartDate, err = optionalDateParam(c, "dataStartDate"); err != nil {
		return p, err
	}
	if p.DataEndDate, err = optionalDateParam(c, "dataEndDate"); err != nil {
		return p, err
	}

	if s := c.Query("algorithm"); s != "" {
		if p.Algorithm, err = outlier.ParseAlgorithm(s); err != nil {
			return p, err
		}
	}
	if s := c.Query("orderBy"); s != "" {
		if p.OrderBy, err = outlier.ParseOrderBy(s); err != nil {
			return p, err
		}
	}
	if s := c.Query("sortOrder"); s != "" {
		if p.SortOrder, err = outlier.ParseSortOrder(s); err != nil {
			return p, err
		}
	}
	if s := c.Query("threshold"); s != "" {
		th, perr := strconv.ParseFloat(s, 64)
		if perr != nil {
			return p, core.NewValidationError("threshold", core.E2204)
		}
		p.Threshold = &th
	}
	if s := c.Query("maxResults"); s != "" {
		n, perr := strconv.Atoi(s)
		if perr != nil {
			return p, core.NewValidationError("maxResults", core.E2205)
		}
		p.MaxResults = &n
	}
	if s := c.Query("skipRounding"); s != "" {
		skip, perr := strconv.ParseBool(s)
		if perr != nil {
			return p, core.NewValidationError("skipRounding", core.E2212, "skipRounding", s)
		}
		p.SkipRounding = skip
	}
	return p, nil
}

func listParam(c *gin.Context, name string) []string {
	var out []string
	for _, v := range c.QueryArray(name) {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// orgUnitFromPath takes the unit id from the last path segment. Values
// without a leading slash keep an empty path and fail validation.
func orgUnitFromPath(path string) outlier.OrgUnit {
	if !strings.HasPrefix(path, "/") {
		return outlier.OrgUnit{ID: path}
	}
	segments := strings.Split(strings.TrimSuffix(path, "/"), "/")
	return outlier.OrgUnit{ID: segments[len(segments)-1], Path: strings.TrimSuffix(path, "/")}
}

func dateParam(c *gin.Context, name string) (time.Time, error) {
	s := c.Query(name)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, core.NewValidationError(name, core.E2212, name, s)
	}
	return t, nil
}

func optionalDateParam(c *gin.Context, name string) (*time.Time, error) {
	t, err := dateParam(c, name)
	if err != nil || t.IsZero() {
		return nil, err
	}
	return &t, nil
}
