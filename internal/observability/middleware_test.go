package observability

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danmuck/ledgerctl/internal/testutil/testlog"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var lines []map[string]any
	for _, raw := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if raw == "" {
			continue
		}
		var line map[string]any
		if err := json.Unmarshal([]byte(raw), &line); err != nil {
			t.Fatalf("bad log line %q: %v", raw, err)
		}
		lines = append(lines, line)
	}
	return lines
}

func TestRequestLoggerCarriesRequestIDAndQuietsProbes(t *testing.T) {
	testlog.Start(t)
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.InfoLevel)
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set(RequestIDKey, "req-42") })
	r.Use(RequestLogger(logger))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/v1/extrinsics/decode", func(c *gin.Context) { c.Status(http.StatusUnprocessableEntity) })

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/health", nil),
		httptest.NewRequest(http.MethodPost, "/v1/extrinsics/decode", nil),
	} {
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	lines := logLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected only the decode request at info+, got %v", lines)
	}
	line := lines[0]
	if line[RequestIDKey] != "req-42" || line["path"] != "/v1/extrinsics/decode" || line["level"] != "warn" {
		t.Fatalf("unexpected access log line: %v", line)
	}
}

func TestRequestMetricsCollapseUnmatchedPaths(t *testing.T) {
	testlog.Start(t)
	gin.SetMode(gin.TestMode)
	RegisterMetrics()

	r := gin.New()
	r.Use(RequestMetricsMiddleware("metrics-node"))
	before := testutil.ToFloat64(httpRequests.WithLabelValues("metrics-node", "GET", "unmatched", "404"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope/1", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope/2", nil))

	got := testutil.ToFloat64(httpRequests.WithLabelValues("metrics-node", "GET", "unmatched", "404")) - before
	if got != 2 {
		t.Fatalf("expected 2 unmatched requests, got %v", got)
	}
}
