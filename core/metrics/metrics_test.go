package metrics

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/orderbot/core/config"
)

func TestListenDisabled(t *testing.T) {
	srv, err := Listen(coreconfig.MetricsConfig{})
	require.NoError(t, err)
	assert.Nil(t, srv)
	assert.NoError(t, srv.Serve(context.Background()))
}

func TestServeExposesRegistry(t *testing.T) {
	probe := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "test_probe_total",
		Help:      "Probe counter for the endpoint test.",
	})
	MustRegister(probe)
	t.Cleanup(func() { Registry.Unregister(probe) })
	probe.Add(3)

	srv, err := Listen(coreconfig.MetricsConfig{Listen: "127.0.0.1:0", Path: "/metrics"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	resp, err := http.Get("http://" + srv.Addr() + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "orderbot_test_probe_total 3")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
