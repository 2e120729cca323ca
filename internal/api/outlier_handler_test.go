package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"hisoutlier/adapters/render"
	"hisoutlier/app"
	"hisoutlier/domain/core"
	"hisoutlier/domain/outlier"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockDetector is a mock implementation of ports.OutlierDetector
type MockDetector struct {
	mock.Mock
}

func (m *MockDetector) Detect(ctx context.Context, req *outlier.Request) ([]outlier.Value, error) {
	args := m.Called(ctx, req)
	values, _ := args.Get(0).([]outlier.Value)
	return values, args.Error(1)
}

func init() {
	gin.SetMode(gin.TestMode)
}

const validQuery = "/api/outlierDetection?de=fbfJHSPpUQD&ou=/ImspTQPwCqd/DiszpKrYNg8&startDate=2022-01-01&endDate=2022-12-31"

func serve(t *testing.T, detector *MockDetector, target string) *httptest.ResponseRecorder {
	t.Helper()
	router := NewRouter(NewOutlierHandler(detector, outlier.DefaultLimits(), nil))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestGetOutliers_JSON(t *testing.T) {
	detector := new(MockDetector)
	detector.On("Detect", mock.Anything, mock.MatchedBy(func(r *outlier.Request) bool {
		ous := r.OrgUnits()
		return r.Algorithm() == outlier.ModifiedZScore &&
			r.Threshold() == 2.5 &&
			r.MaxResults() == 20 &&
			len(ous) == 1 && ous[0].ID == "DiszpKrYNg8" && ous[0].Path == "/ImspTQPwCqd/DiszpKrYNg8"
	})).Return([]outlier.Value{{DataElementID: "fbfJHSPpUQD", Period: "202205", Value: 100}}, nil)

	w := serve(t, detector, validQuery+"&algorithm=modified_z_score&threshold=2.5&maxResults=20")

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	body := decode(t, w)
	assert.EqualValues(t, 1, body["height"])
	detector.AssertExpectations(t)
}

func TestGetOutliers_PropagatesRequestID(t *testing.T) {
	detector := new(MockDetector)
	detector.On("Detect", mock.MatchedBy(func(ctx context.Context) bool {
		id, ok := app.RequestID(ctx)
		return ok && id == "req-42"
	}), mock.Anything).Return([]outlier.Value{}, nil)

	router := NewRouter(NewOutlierHandler(detector, outlier.DefaultLimits(), nil))
	r := httptest.NewRequest(http.MethodGet, validQuery, nil)
	r.Header.Set(RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
	detector.AssertExpectations(t)
}

func TestGetOutliers_CSV(t *testing.T) {
	detector := new(MockDetector)
	detector.On("Detect", mock.Anything, mock.Anything).Return([]outlier.Value{{DataElementID: "fbfJHSPpUQD"}}, nil)

	w := serve(t, detector, validQuery+"&format=csv")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, render.ContentTypes[render.FormatCSV], w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "dx,dxname")
	assert.Contains(t, w.Body.String(), "fbfJHSPpUQD")
}

func TestGetOutliers_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		query string
		code  string
	}{
		{"missing data elements", "/api/outlierDetection?ou=/A&startDate=2022-01-01&endDate=2022-02-01", "E2200"},
		{"bad date", validQuery + "&dataStartDate=2022-13-01", "E2212"},
		{"bad threshold", validQuery + "&threshold=high", "E2204"},
		{"negative max results", validQuery + "&maxResults=-1", "E2205"},
		{"unknown algorithm", validQuery + "&algorithm=IQR", "E2212"},
		{"bad skipRounding", validQuery + "&skipRounding=maybe", "E2212"},
		{"org unit without path", "/api/outlierDetection?de=a&ou=DiszpKrYNg8&startDate=2022-01-01&endDate=2022-02-01", "E2211"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detector := new(MockDetector)
			w := serve(t, detector, tt.query)

			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.code, decode(t, w)["errorCode"])
			detector.AssertNotCalled(t, "Detect", mock.Anything, mock.Anything)
		})
	}
}

func TestGetOutliers_IllegalQuery(t *testing.T) {
	detector := new(MockDetector)
	cause := stderrors.New(`pq: invalid input syntax for type double precision: "abc"`)
	detector.On("Detect", mock.Anything, mock.Anything).Return(nil, core.NewIllegalQueryError(core.E2207, cause))

	w := serve(t, detector, validQuery)

	require.Equal(t, http.StatusConflict, w.Code)
	body := decode(t, w)
	assert.Equal(t, "E2207", body["errorCode"])
	assert.NotContains(t, body["message"], "pq:")
}

func TestGetOutliers_InternalError(t *testing.T) {
	detector := new(MockDetector)
	detector.On("Detect", mock.Anything, mock.Anything).Return(nil, stderrors.New("connection refused"))

	w := serve(t, detector, validQuery)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestGetOutliers_UnsupportedFormat(t *testing.T) {
	w := serve(t, new(MockDetector), validQuery+"&format=pdf")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealth(t *testing.T) {
	w := serve(t, new(MockDetector), "/health")
	assert.Equal(t, http.StatusOK, w.Code)
}
