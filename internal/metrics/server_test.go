package metrics

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goran-ethernal/SubgraphWatcher/internal/logger"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/config"
	"github.com/stretchr/testify/require"
)

func testMetricsConfig(enabled bool) *config.MetricsConfig {
	cfg := &config.MetricsConfig{Enabled: enabled, ListenAddress: "127.0.0.1:0"}
	cfg.ApplyDefaults()
	return cfg
}

func TestServerHandler(t *testing.T) {
	t.Parallel()

	SyncBlock.WithLabelValues("test").Set(42)
	s := NewServer(testMetricsConfig(true), logger.NewNopLogger())

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "OK", rec.Body.String())

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `subgraphwatcher_sync_block{stage="test"} 42`)
}

func TestServerRunDisabled(t *testing.T) {
	t.Parallel()

	s := NewServer(testMetricsConfig(false), logger.NewNopLogger())
	require.NoError(t, s.Run(context.Background()))
}

func TestServerServeAndShutdown(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	s := NewServer(testMetricsConfig(true), logger.NewNopLogger())

	done := make(chan error, 1)
	go func() { done <- s.serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, "OK", string(body))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("metrics server did not stop")
	}
}

func TestServerRunListenError(t *testing.T) {
	t.Parallel()

	cfg := testMetricsConfig(true)
	cfg.ListenAddress = "256.0.0.1:1"
	err := NewServer(cfg, logger.NewNopLogger()).Run(context.Background())
	require.ErrorContains(t, err, "failed to listen on 256.0.0.1:1")
}
