package http_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/kiosk"
	"github.com/aretw0/kiosk/internal/testutils"
	kioskhttp "github.com/aretw0/kiosk/pkg/adapters/http"
	"github.com/aretw0/kiosk/pkg/dispatch"
	"github.com/aretw0/kiosk/pkg/domain"
	"github.com/aretw0/kiosk/pkg/runner"
)

func newServer(t *testing.T, opts ...kioskhttp.Option) (*httptest.Server, *kioskhttp.StreamManager) {
	t.Helper()
	cat, err := testutils.LoadCatalog()
	require.NoError(t, err)

	streams := kioskhttp.NewStreamManager(nil)
	shop, err := kiosk.New(cat, kiosk.WithPublisher(streams))
	require.NoError(t, err)

	handler, err := kioskhttp.NewHandler(shop, append([]kioskhttp.Option{kioskhttp.WithStreams(streams)}, opts...)...)
	require.NoError(t, err)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, streams
}

func postEvent(t *testing.T, srv *httptest.Server, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(srv.URL+"/events", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestGetSwagger(t *testing.T) {
	doc, err := kioskhttp.GetSwagger()
	require.NoError(t, err)
	assert.NotNil(t, doc.Paths.Find("/events"))
	assert.NotNil(t, doc.Paths.Find("/sessions/{key}/cart"))
}

func TestHealthAndInfo(t *testing.T) {
	srv, _ := newServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/info")
	require.NoError(t, err)
	defer resp.Body.Close()
	var info map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	assert.Equal(t, "kiosk-http", info["app"])
	assert.Equal(t, strings.TrimSpace(kiosk.Version), info["version"])
	assert.Equal(t, "1.0.0", info["api_version"])
}

func TestPostEvent(t *testing.T) {
	srv, _ := newServer(t)

	resp, data := postEvent(t, srv, `{"identity":{"username":"alice"},"command":"/start"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

	var view domain.View
	require.NoError(t, json.Unmarshal(data, &view))
	assert.Equal(t, dispatch.TextSelectCountry, view.Text)
	require.Len(t, view.Actions, 2)

	resp, data = postEvent(t, srv, `{"identity":{"username":"alice"},"data":"`+view.Actions[0].Data+`"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), "You selected Portugal")
}

func TestPostEvent_Rejects(t *testing.T) {
	srv, _ := newServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"Malformed JSON", `{"identity":`},
		{"Missing identity", `{"command":"start"}`},
		{"Empty identity", `{"identity":{},"command":"start"}`},
		{"No input", `{"identity":{"username":"alice"}}`},
		{"Two inputs", `{"identity":{"username":"alice"},"command":"start","text":"hi"}`},
		{"Wrong type", `{"identity":{"username":7},"command":"start"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, data := postEvent(t, srv, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(data))
		})
	}

	t.Run("Missing content type", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, srv.URL+"/events", strings.NewReader(`{"identity":{"username":"a"},"command":"start"}`))
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Oversized text", func(t *testing.T) {
		t.Setenv(runner.EnvMaxInputSize, "8")
		resp, data := postEvent(t, srv, `{"identity":{"username":"alice"},"text":"far too long for the limit"}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, string(data), "Invalid input")
	})
}

func TestCartAndOrders(t *testing.T) {
	srv, _ := newServer(t)

	resp, err := http.Get(srv.URL + "/sessions/nobody/cart")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, data := postEvent(t, srv, `{"identity":{"username":"alice"},"data":"quantity|flowers|roses|red|10"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

	resp, err = http.Get(srv.URL + "/sessions/alice/cart")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cart struct {
		Lines          []string `json:"lines"`
		Total          float64  `json:"total"`
		FormattedTotal string   `json:"formatted_total"`
		Unresolved     int      `json:"unresolved"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cart))
	assert.Equal(t, []string{"- 10 of Red Rose @ €12,500/unit"}, cart.Lines)
	assert.Equal(t, 12500.0, cart.Total)
	assert.Equal(t, "12500.00€", cart.FormattedTotal)

	resp, err = http.Get(srv.URL + "/sessions/alice/orders")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(body))
}

func TestSubscribeEvents(t *testing.T) {
	srv, streams := newServer(t)

	t.Run("Session is required", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/events/stream")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events/stream?session=alice&types=activity", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool { return streams.Subscribers("alice") == 1 }, time.Second, 10*time.Millisecond)

	postResp, data := postEvent(t, srv, `{"identity":{"username":"alice"},"command":"start"}`)
	require.Equal(t, http.StatusOK, postResp.StatusCode, string(data))

	reader := bufio.NewReader(resp.Body)
	var lines []string
	for len(lines) < 4 {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	assert.Equal(t, "event: ping", lines[0])
	assert.Equal(t, "data: connected", lines[1])
	assert.Equal(t, "event: activity", lines[2])

	var ev domain.FeedEvent
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(lines[3], "data: ")), &ev))
	assert.Equal(t, "alice", ev.SessionKey)
	assert.Equal(t, dispatch.ActivityStart, ev.Action)

	cancel()
	assert.Eventually(t, func() bool { return streams.Subscribers("alice") == 0 }, time.Second, 10*time.Millisecond)
}

func TestMetricsCORSAndOpenAPIDocument(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("kiosk_events_total 1\n"))
	})
	srv, _ := newServer(t, kioskhttp.WithMetrics(metrics))

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), "kiosk_events_total")

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/events", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	resp, err = http.Get(srv.URL + "/openapi.yaml")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.True(t, bytes.HasPrefix(body, []byte("openapi: 3.0.3")))
}

func TestStreamManager_Publish(t *testing.T) {
	sm := kioskhttp.NewStreamManager(nil)
	ch, cancel := sm.Subscribe("bob")
	other, cancelOther := sm.Subscribe("carol")
	defer cancelOther()

	err := sm.Publish(context.Background(), domain.FeedEvent{Type: domain.FeedOrderPlaced, SessionKey: "bob"})
	require.NoError(t, err)

	msg := <-ch
	assert.Equal(t, string(domain.FeedOrderPlaced), msg.Type)
	assert.Contains(t, msg.Data, `"session_key":"bob"`)
	assert.Empty(t, other)

	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)
	assert.Zero(t, sm.Subscribers("bob"))
}
