package observability

import (
	"testing"
	"time"

	"github.com/danmuck/ledgerctl/internal/testutil/testlog"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	testlog.Start(t)
	RegisterMetrics()
	RegisterMetrics()

	RecordHTTPRequest("ledgerd-a", "GET", "/health", 200, 12*time.Millisecond)

	okBefore := testutil.ToFloat64(decodeBatches.WithLabelValues("test", "ok"))
	countBefore := testutil.ToFloat64(decodeExtrinsics.WithLabelValues("test"))
	failBefore := testutil.ToFloat64(decodeFailures.WithLabelValues("test", "decode"))

	RecordDecodeBatch("test", 3, "", 2*time.Millisecond)
	RecordDecodeBatch("test", 5, "decode", time.Millisecond)

	if got := testutil.ToFloat64(decodeBatches.WithLabelValues("test", "ok")) - okBefore; got != 1 {
		t.Fatalf("expected 1 ok batch, got %v", got)
	}
	if got := testutil.ToFloat64(decodeExtrinsics.WithLabelValues("test")) - countBefore; got != 3 {
		t.Fatalf("expected 3 extrinsics counted, got %v", got)
	}
	if got := testutil.ToFloat64(decodeFailures.WithLabelValues("test", "decode")) - failBefore; got != 1 {
		t.Fatalf("expected 1 decode failure, got %v", got)
	}
}
