package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apimocks "github.com/goran-ethernal/SubgraphWatcher/internal/api/mocks"
	"github.com/goran-ethernal/SubgraphWatcher/internal/common"
	"github.com/goran-ethernal/SubgraphWatcher/internal/logger"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/config"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/subgraph"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testAPIConfig(enabled bool) *config.APIConfig {
	cfg := &config.APIConfig{
		Enabled:       enabled,
		ListenAddress: "127.0.0.1:0",
		ReadTimeout:   common.NewDuration(5 * time.Second),
		WriteTimeout:  common.NewDuration(10 * time.Second),
		IdleTimeout:   common.NewDuration(60 * time.Second),
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestNewServer(t *testing.T) {
	t.Parallel()

	cfg := testAPIConfig(true)
	server := NewServer(cfg, apimocks.NewQuerier(t), logger.NewNopLogger())

	require.NotNil(t, server.handler)
	require.Equal(t, "127.0.0.1:0", server.server.Addr)
	require.Equal(t, 5*time.Second, server.server.ReadTimeout)
	require.Equal(t, 10*time.Second, server.server.WriteTimeout)
	require.Equal(t, 60*time.Second, server.server.IdleTimeout)
	require.Equal(t, 1000, server.handler.maxPageSize)
}

func TestServer_Routes(t *testing.T) {
	t.Parallel()

	querier := apimocks.NewQuerier(t)
	querier.EXPECT().GetSyncStatus(mock.Anything).Return(&subgraph.SyncStatus{}, nil).Maybe()
	querier.EXPECT().GetStateSyncStatus(mock.Anything).Return(&subgraph.StateSyncStatus{}, nil).Maybe()
	querier.EXPECT().GetWatchedContracts().Return([]*subgraph.Contract{}).Maybe()
	querier.EXPECT().EntityTypes().Return([]string{"Pool"}).Maybe()
	querier.EXPECT().GetSubgraphEntities(mock.Anything, "Pool", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]subgraph.Entity{}, nil).Maybe()
	querier.EXPECT().GetSubgraphEntity(mock.Anything, "Pool", "0x1", mock.Anything, mock.Anything).
		Return(subgraph.Entity{"id": "0x1"}, nil).Maybe()
	querier.EXPECT().GetEventsInRange(mock.Anything, uint64(1), uint64(2)).Return(nil, nil).Maybe()
	querier.EXPECT().GetStateByCID(mock.Anything, "cid").Return(&subgraph.State{CID: "cid"}, nil).Maybe()

	handler := NewServer(testAPIConfig(true), querier, logger.NewNopLogger()).server.Handler

	tests := []struct {
		method       string
		path         string
		expectedCode int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/api/v1/sync-status", http.StatusOK},
		{http.MethodGet, "/api/v1/state-sync-status", http.StatusOK},
		{http.MethodGet, "/api/v1/contracts", http.StatusOK},
		{http.MethodGet, "/api/v1/entities", http.StatusOK},
		{http.MethodGet, "/api/v1/entities/Pool", http.StatusOK},
		{http.MethodGet, "/api/v1/entities/Pool/0x1", http.StatusOK},
		{http.MethodGet, "/api/v1/events/range?from_block=1&to_block=2", http.StatusOK},
		{http.MethodGet, "/api/v1/state/cid", http.StatusOK},
		{http.MethodPost, "/api/v1/sync-status", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/v1/unknown", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			require.Equal(t, tt.expectedCode, w.Code)
		})
	}
}

func TestServer_CORS(t *testing.T) {
	t.Parallel()

	cfg := testAPIConfig(true)
	cfg.CORS = config.CORSConfig{Enabled: true, AllowedOrigins: []string{"https://app.example"}}

	handler := NewServer(cfg, apimocks.NewQuerier(t), logger.NewNopLogger()).server.Handler

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/entities/Pool", nil)
	req.Header.Set("Origin", "https://app.example")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_Start_Disabled(t *testing.T) {
	t.Parallel()

	server := NewServer(testAPIConfig(false), apimocks.NewQuerier(t), logger.NewNopLogger())

	// returns immediately without waiting for ctx
	require.NoError(t, server.Start(context.Background()))
}

func TestServer_Start_GracefulShutdown(t *testing.T) {
	t.Parallel()

	server := NewServer(testAPIConfig(true), apimocks.NewQuerier(t), logger.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- server.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(shutdownCtxTimeout):
		t.Fatal("server did not shut down")
	}
}

func TestServer_Start_ListenError(t *testing.T) {
	t.Parallel()

	cfg := testAPIConfig(true)
	cfg.ListenAddress = "256.0.0.1:1"
	server := NewServer(cfg, apimocks.NewQuerier(t), logger.NewNopLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.ErrorContains(t, server.Start(ctx), "API server error")
}
