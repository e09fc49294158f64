// End-to-end tests for the provider service.
// A PostgreSQL container is started and migrated, and the real handler runs in an httptest.Server.
package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/abgdnv/providerhub/internal/app"
	"github.com/abgdnv/providerhub/internal/config"
	"github.com/abgdnv/providerhub/internal/service"
	"github.com/abgdnv/providerhub/internal/store"
	"github.com/abgdnv/providerhub/internal/testutil"
	"github.com/abgdnv/providerhub/pkg/messaging"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const providerDataURL = "/api/v1/provider-data"

type ProviderServiceE2ESuite struct {
	suite.Suite
	pg         *testutil.Postgres
	server     *httptest.Server
	httpClient *http.Client
	logger     *slog.Logger
	ctx        context.Context
}

// testConfig creates the configuration used by the suite. Missing providers are created.
func testConfig() *config.Config {
	var cfg config.Config
	cfg.Resilience.CircuitBreaker.ConsecutiveFailures = 5
	cfg.Resilience.CircuitBreaker.ErrorRatePercent = 100
	cfg.Resilience.CircuitBreaker.OpenTimeout = time.Second
	cfg.Resilience.CircuitBreaker.MaxHalfOpenRequests = 1
	cfg.Processing.CreateMissing = true
	cfg.Processing.MaxBodyBytes = 1 << 20
	return &cfg
}

func (s *ProviderServiceE2ESuite) SetupSuite() {
	s.ctx = context.Background()
	s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var err error
	s.pg, err = testutil.StartPostgres(s.ctx, s.logger)
	require.NoError(s.T(), err, "Failed to start PostgreSQL")

	cfg := testConfig()
	refs := app.SetupReferences(s.pg.Pool, nil, cfg, s.logger)
	deps := app.SetupDependencies(store.NewPgStore(s.pg.Pool), refs, messaging.NoopPublisher{}, cfg, s.logger)
	s.server = httptest.NewServer(app.SetupHttpHandler(deps))
	s.httpClient = s.server.Client()
	s.logger.Info("Initialization complete for ProviderServiceE2ESuite")
}

func (s *ProviderServiceE2ESuite) TearDownSuite() {
	if s.server != nil {
		s.server.Close()
	}
	if s.pg != nil {
		s.pg.Terminate(s.ctx, s.logger)
	}
}

func (s *ProviderServiceE2ESuite) SetupTest() {
	_, err := s.pg.Pool.Exec(s.ctx, "TRUNCATE TABLE provider_data CASCADE")
	require.NoError(s.T(), err, "Failed to truncate provider_data table")
}

func TestProviderServiceE2E(t *testing.T) {
	if testutil.IntegrationDisabled() {
		t.Skip("Skipping E2E tests based on " + testutil.SkipIntegrationTests + " env var")
	}
	suite.Run(t, new(ProviderServiceE2ESuite))
}

type productBody struct {
	Id              uuid.UUID
	Name            string
	MeasureUnitCode string
	Price           string
}

type providerBody struct {
	ProviderId  uuid.UUID
	Timestamp   time.Time
	ReplaceData bool
	Products    []productBody
}

func (s *ProviderServiceE2ESuite) post(body providerBody) service.ProcessReport {
	raw, err := json.Marshal(body)
	s.Require().NoError(err)
	resp, err := s.httpClient.Post(s.server.URL+providerDataURL, "application/json", bytes.NewReader(raw))
	s.Require().NoError(err)
	defer func() { _ = resp.Body.Close() }()
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var report service.ProcessReport
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&report))
	return report
}

func (s *ProviderServiceE2ESuite) storedProducts(providerID uuid.UUID) []string {
	data, err := store.NewPgStore(s.pg.Pool).FindByProviderID(s.ctx, providerID)
	s.Require().NoError(err)
	names := make([]string, 0, len(data.Products))
	for _, p := range data.Products {
		names = append(names, p.Name+":"+p.Price.String())
	}
	return names
}

func (s *ProviderServiceE2ESuite) TestLifecycle() {
	providerID := uuid.New()
	banana, apple, orange := uuid.New(), uuid.New(), uuid.New()
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	testCases := []struct {
		name            string
		body            providerBody
		expectedSuccess bool
		expectedError   string
		expectedStored  []string
	}{
		{
			name: "creates missing provider",
			body: providerBody{ProviderId: providerID, Timestamp: day, Products: []productBody{
				{Id: banana, Name: "Banana", MeasureUnitCode: "kg", Price: "1.25"},
			}},
			expectedSuccess: true,
			expectedStored:  []string{"Banana:1.25"},
		},
		{
			name: "merges new products",
			body: providerBody{ProviderId: providerID, Timestamp: day.Add(time.Hour), Products: []productBody{
				{Id: banana, Name: "Banana", MeasureUnitCode: "kg", Price: "1.5"},
				{Id: apple, Name: "Apple", MeasureUnitCode: "kg", Price: "2"},
			}},
			expectedSuccess: true,
			expectedStored:  []string{"Banana:1.5", "Apple:2"},
		},
		{
			name: "rejects outdated data",
			body: providerBody{ProviderId: providerID, Timestamp: day, Products: []productBody{
				{Id: orange, Name: "Orange", MeasureUnitCode: "kg", Price: "3"},
			}},
			expectedError:  service.ReasonOutdatedData,
			expectedStored: []string{"Banana:1.5", "Apple:2"},
		},
		{
			name: "rejects unknown products",
			body: providerBody{ProviderId: providerID, Timestamp: day.Add(2 * time.Hour), Products: []productBody{
				{Id: orange, Name: "Durian", MeasureUnitCode: "kg", Price: "3"},
			}},
			expectedError:  service.ReasonProductErrors,
			expectedStored: []string{"Banana:1.5", "Apple:2"},
		},
		{
			name: "replaces data",
			body: providerBody{ProviderId: providerID, Timestamp: day.Add(3 * time.Hour), ReplaceData: true, Products: []productBody{
				{Id: orange, Name: "Orange", MeasureUnitCode: "l", Price: "3"},
			}},
			expectedSuccess: true,
			expectedStored:  []string{"Orange:3"},
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			// when
			report := s.post(tc.body)

			// then
			s.Equal(tc.expectedSuccess, report.Success)
			s.Equal(tc.expectedError, report.Error)
			s.Equal(tc.expectedStored, s.storedProducts(providerID))
		})
	}
}

func (s *ProviderServiceE2ESuite) TestHealthCheck() {
	resp, err := s.httpClient.Get(s.server.URL + "/healthz")
	s.Require().NoError(err)
	defer func() { _ = resp.Body.Close() }()
	s.Equal(http.StatusOK, resp.StatusCode)
}
