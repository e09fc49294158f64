package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/abgdnv/providerhub/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockProcessor struct {
	mock.Mock
}

func (m *mockProcessor) ProcessProviderData(ctx context.Context, raw []byte) (*service.ProcessReport, error) {
	args := m.Called(ctx, raw)
	report, _ := args.Get(0).(*service.ProcessReport)
	return report, args.Error(1)
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func toJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func newRouter(processor ProviderDataProcessor, limit int64) *chi.Mux {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	r := chi.NewRouter()
	NewHandler(processor, limit, logger).RegisterRoutes(r)
	return r
}

const body = `{"ProviderId":"9a9b2e35-3c55-4fd1-8f2c-8e0c36c9c0a4","Products":[]}`

func Test_ProcessProviderData(t *testing.T) {
	successReport := &service.ProcessReport{Success: true, ProductResults: []service.ProductValidationResult{}}
	failureReport := &service.ProcessReport{Error: service.ReasonProviderNotFound, ProductResults: []service.ProductValidationResult{}}

	testCases := []struct {
		name           string
		body           string
		limit          int64
		report         *service.ProcessReport
		err            error
		expectCall     bool
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "success report",
			body:           body,
			limit:          1024,
			report:         successReport,
			expectCall:     true,
			expectedStatus: http.StatusOK,
			expectedBody:   `{"Success":true,"Error":"","ProductResults":[]}`,
		},
		{
			name:           "domain failure is still 200",
			body:           body,
			limit:          1024,
			report:         failureReport,
			expectCall:     true,
			expectedStatus: http.StatusOK,
			expectedBody:   `{"Success":false,"Error":"Provider not found","ProductResults":[]}`,
		},
		{
			name:           "collaborator fault",
			body:           body,
			limit:          1024,
			err:            errors.New("database is down"),
			expectCall:     true,
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   toJSON(t, ErrorResponse{Error: "Failed to process provider data"}),
		},
		{
			name:           "body over limit",
			body:           body,
			limit:          8,
			expectedStatus: http.StatusRequestEntityTooLarge,
			expectedBody:   toJSON(t, ErrorResponse{Error: "Request body too large"}),
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			processor := new(mockProcessor)
			if tc.expectCall {
				processor.On("ProcessProviderData", mock.Anything, []byte(tc.body)).Return(tc.report, tc.err).Once()
			}
			router := newRouter(processor, tc.limit)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/provider-data", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			rr := httptest.NewRecorder()

			// when
			router.ServeHTTP(rr, req)

			// then
			assert.Equal(t, tc.expectedStatus, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			assert.JSONEq(t, tc.expectedBody, rr.Body.String())
			processor.AssertExpectations(t)
			if !tc.expectCall {
				processor.AssertNotCalled(t, "ProcessProviderData", mock.Anything, mock.Anything)
			}
		})
	}
}

func Test_ProcessProviderData_PassesRawBody(t *testing.T) {
	// given
	raw := `not even json`
	processor := new(mockProcessor)
	report := &service.ProcessReport{Error: service.ReasonMalformedData, ProductResults: []service.ProductValidationResult{}}
	processor.On("ProcessProviderData", mock.Anything, []byte(raw)).Return(report, nil).Once()
	rr := httptest.NewRecorder()

	// when
	newRouter(processor, 1024).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/provider-data", strings.NewReader(raw)))

	// then
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"Success":false,"Error":"Malformed provider data","ProductResults":[]}`, rr.Body.String())
	processor.AssertExpectations(t)
}

func Test_Routes(t *testing.T) {
	testCases := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
	}{
		{name: "health check", method: http.MethodGet, path: "/healthz", expectedStatus: http.StatusOK},
		{name: "get is not allowed", method: http.MethodGet, path: "/api/v1/provider-data", expectedStatus: http.StatusMethodNotAllowed},
		{name: "unknown path", method: http.MethodPost, path: "/api/v1/providers", expectedStatus: http.StatusNotFound},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			newRouter(new(mockProcessor), 1024).ServeHTTP(rr, httptest.NewRequest(tc.method, tc.path, nil))
			assert.Equal(t, tc.expectedStatus, rr.Code)
		})
	}
}
