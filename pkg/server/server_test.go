package server

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/abgdnv/providerhub/pkg/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

func Test_NewChiRouter_SetsRequestID(t *testing.T) {
	// given
	mux := NewChiRouter(slog.New(slog.NewTextHandler(io.Discard, nil)))
	var seen string
	mux.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		seen, _ = web.GetRequestID(r.Context())
	})
	rr := httptest.NewRecorder()

	// when
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ping", nil))

	// then
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rr.Header().Get(web.RequestIDHeader))
}

func Test_NewHTTPServer(t *testing.T) {
	cfg := HTTPConfig{Port: 8081, MaxHeaderBytes: 1024, ReadTimeout: time.Second, WriteTimeout: 2 * time.Second, IdleTimeout: 3 * time.Second, ReadHeader: 4 * time.Second}

	srv := NewHTTPServer(cfg, "test", http.NotFoundHandler())

	assert.Equal(t, ":8081", srv.Addr)
	assert.Equal(t, 1024, srv.MaxHeaderBytes)
	assert.Equal(t, 4*time.Second, srv.ReadHeaderTimeout)
	assert.NotNil(t, srv.Handler)
}

func Test_GRPCHealth(t *testing.T) {
	// given
	healthServer := health.NewServer()
	grpcServer := NewGRPCServer(true, HealthRegistration(healthServer))
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = grpcServer.Serve(lis) }()
	t.Cleanup(grpcServer.Stop)

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// when
	resp, err := grpc_health_v1.NewHealthClient(conn).Check(ctx, &grpc_health_v1.HealthCheckRequest{})

	// then
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, resp.GetStatus())
}
