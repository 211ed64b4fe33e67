package cli

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/gorilla/websocket"
	"github.com/navid-fn/gasradar/configs"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const estimatesBody = `{"result": {
	"instant": {"feeCap": 41.5, "maxPriorityFee": 2},
	"fast": {"feeCap": 35, "maxPriorityFee": 1.5},
	"eco": {"feeCap": 30, "maxPriorityFee": 1},
	"baseFee": 28,
	"ethPrice": 3120.5
}, "error": null}`

func TestMain(m *testing.M) {
	color.NoColor = true
	m.Run()
}

func newAPIServer(t *testing.T, routes map[string]string) (*httptest.Server, *[]string) {
	t.Helper()
	var queries []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		queries = append(queries, r.URL.RawQuery)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(server.Close)
	return server, &queries
}

func execute(t *testing.T, ctx context.Context, cfg *configs.AppConfig, args ...string) (string, error) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cmd := NewRootCommand(cfg, logger)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func testConfig(apiURL, wsURL string) *configs.AppConfig {
	return &configs.AppConfig{
		API:      *configs.DefaultAPIConfig(apiURL),
		Realtime: *configs.DefaultRealtimeConfig(wsURL),
		Poll:     configs.PollConfig{Interval: time.Second},
		LogLevel: "info",
	}
}

func TestEstimatesCommand(t *testing.T) {
	server, queries := newAPIServer(t, map[string]string{"/estimates": estimatesBody})

	out, err := execute(t, context.Background(), testConfig(server.URL, ""), "estimates", "--countervalue", "EUR")
	require.NoError(t, err)

	assert.Contains(t, out, "Base fee: 28")
	assert.Contains(t, out, "fee cap 41.5, priority fee 2")
	assert.Contains(t, out, "ETH price: 3120.50")
	assert.Equal(t, []string{"countervalue=EUR"}, *queries)
}

func TestHistoryCommand(t *testing.T) {
	monday := time.Date(2024, 1, 1, 12, 0, 0, 0, time.Local).Unix()
	body := `{"result": [
		{"timestamp": ` + strconv.FormatInt(monday, 10) + `, "estimates": {"instant": {"feeCap": 30, "maxPriorityFee": 2}, "fast": {"feeCap": 25, "maxPriorityFee": 1}, "eco": {"feeCap": 20, "maxPriorityFee": 1}, "baseFee": 19}}
	], "error": null}`
	server, queries := newAPIServer(t, map[string]string{"/historyByMinute": body, "/historyByHour": body})

	out, err := execute(t, context.Background(), testConfig(server.URL, ""), "history", "minute", "--duration", "600")
	require.NoError(t, err)
	assert.Contains(t, out, "base 19")

	out, err = execute(t, context.Background(), testConfig(server.URL, ""), "history", "hour", "--summary")
	require.NoError(t, err)
	assert.Contains(t, out, "Lowest base fee: 19")
	assert.Contains(t, out, "Cheapest day on average: Monday")

	assert.Equal(t, []string{"duration=600", "duration=2592000"}, *queries)
}

func TestHistoryCommandRejectsUnknownResolution(t *testing.T) {
	_, err := execute(t, context.Background(), testConfig("http://127.0.0.1:1", ""), "history", "day")
	assert.Error(t, err)
}

func TestTxpoolCommand(t *testing.T) {
	server, _ := newAPIServer(t, map[string]string{
		"/txpoolAnalysis": `{"result": {"baseFee": 21, "stepSizeGas": 1000000, "desiredBlockGas": 15000000,
			"data": [{"totalFees": 1500000000000000000, "gasUsed": 21000, "analysis": {"transfer": 0, "token": 5}}]}, "error": null}`,
		"/txpoolByGasPrice": `{"result": {"30": 4}, "error": null}`,
	})

	out, err := execute(t, context.Background(), testConfig(server.URL, ""), "txpool")
	require.NoError(t, err)
	assert.Contains(t, out, "fees 1.5 ETH, gas used 21000, token 5")
	assert.NotContains(t, out, "transfer")

	out, err = execute(t, context.Background(), testConfig(server.URL, ""), "txpool", "--raw")
	require.NoError(t, err)
	assert.Contains(t, out, `"30": 4`)
}

func TestServiceErrorSurfaces(t *testing.T) {
	server, _ := newAPIServer(t, map[string]string{"/estimates": `{"result": null, "error": "bad countervalue"}`})

	_, err := execute(t, context.Background(), testConfig(server.URL, ""), "estimates")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad countervalue")
}

func TestRealtimeCommand(t *testing.T) {
	var upgrader websocket.Upgrader
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"data": `+strings.TrimSuffix(strings.TrimPrefix(estimatesBody, `{"result": `), `, "error": null}`)+`}`))
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	out, err := execute(t, context.Background(), testConfig("", wsURL), "realtime")
	require.NoError(t, err)

	assert.Contains(t, out, "Instant: 42, Fast: 35, Eco: 30")
	assert.Contains(t, out, "closed by server: 1000 bye")
}

func TestWatchCommand(t *testing.T) {
	server, queries := newAPIServer(t, map[string]string{"/estimates": estimatesBody})

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	out, err := execute(t, ctx, testConfig(server.URL, ""), "watch", "--interval", "50ms")
	require.NoError(t, err)
	assert.Contains(t, out, "Instant: 42, Fast: 35, Eco: 30")
	assert.NotEmpty(t, *queries)
}

func TestWatchCommandRejectsZeroInterval(t *testing.T) {
	_, err := execute(t, context.Background(), testConfig("http://127.0.0.1:1", ""), "watch", "--interval", "0s")
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, context.Background(), testConfig("", ""), "version")
	require.NoError(t, err)
	assert.Equal(t, "gasradar v"+version+"\n", out)
}
