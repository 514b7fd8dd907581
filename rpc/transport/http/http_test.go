package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ValentinKolb/expmap/rpc/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestServer starts an httptest server around a server transport that echoes the shard and body
func newTestServer(t *testing.T) (*httpServerTransport, *httptest.Server) {
	t.Helper()

	st := NewHttpServerTransport().(*httpServerTransport)
	st.RegisterHandler(func(shardId uint64, req []byte) []byte {
		return []byte(fmt.Sprintf("%d:%s", shardId, req))
	})
	st.RegisterMetrics(func(w io.Writer) {
		_, _ = io.WriteString(w, "expmap_entries{map=\"100\"} 3\n")
	})

	ts := httptest.NewServer(st.routes())
	t.Cleanup(ts.Close)
	return st, ts
}

func newTestClient(t *testing.T, endpoints ...string) *httpClientTransport {
	t.Helper()

	ct := NewHttpClientTransport().(*httpClientTransport)
	require.NoError(t, ct.Connect(common.ClientConfig{
		Endpoints:     endpoints,
		TimeoutSecond: 2,
		RetryCount:    len(endpoints),
	}))
	t.Cleanup(func() { _ = ct.Close() })
	return ct
}

func TestRoundTrip(t *testing.T) {
	_, ts := newTestServer(t)
	ct := newTestClient(t, ts.URL)

	resp, err := ct.Send(100, []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, "100:hello", string(resp))

	// the body must be sent again for every request
	resp, err = ct.Send(7, []byte("again"))
	require.NoError(t, err)
	assert.Equal(t, "7:again", string(resp))
}

func TestInvalidShardId(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/not-a-number", "application/octet-stream", bytes.NewReader(nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRetryMovesToNextEndpoint(t *testing.T) {
	_, ts := newTestServer(t)

	// the first endpoint refuses connections
	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	ct := newTestClient(t, deadURL, ts.URL)
	for i := 0; i < 4; i++ {
		resp, err := ct.Send(1, []byte("x"))
		require.NoError(t, err)
		assert.Equal(t, "1:x", string(resp))
	}
}

func TestSendWithoutConnect(t *testing.T) {
	ct := NewHttpClientTransport()
	_, err := ct.Send(1, nil)
	assert.Error(t, err)
}

func TestConnectWithoutEndpoints(t *testing.T) {
	ct := NewHttpClientTransport()
	assert.Error(t, ct.Connect(common.ClientConfig{}))
}

func TestBareHostEndpoint(t *testing.T) {
	_, ts := newTestServer(t)
	ct := newTestClient(t, strings.TrimPrefix(ts.URL, "http://"))

	resp, err := ct.Send(2, []byte("bare"))
	require.NoError(t, err)
	assert.Equal(t, "2:bare", string(resp))
}

func TestMetricsAndHealth(t *testing.T) {
	_, ts := newTestServer(t)
	ct := newTestClient(t, ts.URL)

	_, err := ct.Send(100, []byte("count me"))
	require.NoError(t, err)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)

	text := string(body)
	assert.Contains(t, text, `expmap_http_requests_total{op="rpc",status="2xx"} 1`)
	assert.Contains(t, text, "expmap_http_request_duration_seconds")
	assert.Contains(t, text, `expmap_entries{map="100"} 3`)

	resp, err = http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok\n", string(body))
}

func TestShutdownBeforeListen(t *testing.T) {
	st := NewHttpServerTransport()
	assert.NoError(t, st.Shutdown(context.Background()))
}
