package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingRequest struct{}

type pingResponse struct{}

type nopCodec struct{}

func (nopCodec) Name() string { return "json" }

func (nopCodec) Marshal(any) ([]byte, error) { return []byte(`{}`), nil }

func (nopCodec) Unmarshal([]byte, any) error { return nil }

func pingService(opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append(opts, connect.WithCodec(nopCodec{}))
	return "/test.v1.PingService/Ping", connect.NewUnaryHandler("/test.v1.PingService/Ping",
		func(context.Context, *connect.Request[pingRequest]) (*connect.Response[pingResponse], error) {
			return connect.NewResponse(&pingResponse{}), nil
		}, opts...)
}

func newTestServer(t *testing.T, ctx context.Context, reg *prometheus.Registry) string {
	t.Helper()
	s, err := New(ctx, Config{Address: "127.0.0.1:0", Registry: reg}, pingService)
	require.NoError(t, err)

	srv := httptest.NewServer(s.srv.Handler)
	t.Cleanup(srv.Close)
	return srv.URL
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestProbes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	url := newTestServer(t, ctx, prometheus.NewRegistry())

	code, body := get(t, url+"/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"HEALTHY"}`, body)

	code, body = get(t, url+"/readyz")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"SERVING"}`, body)

	cancel()
	code, body = get(t, url+"/readyz")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.JSONEq(t, `{"status":"NOT_SERVING"}`, body)
}

func TestServesHandlersAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_component_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	url := newTestServer(t, context.Background(), reg)

	client := connect.NewClient[pingRequest, pingResponse](http.DefaultClient, url+"/test.v1.PingService/Ping", connect.WithCodec(nopCodec{}))
	_, err := client.CallUnary(context.Background(), connect.NewRequest(&pingRequest{}))
	require.NoError(t, err)

	code, body := get(t, url+"/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "test_component_total 1")
	assert.Contains(t, body, "rpc_server_duration")
}
