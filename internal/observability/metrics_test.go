package observability

import (
	"testing"
	"time"

	"github.com/danmuck/railcan/internal/logging"
	"github.com/danmuck/railcan/internal/testutil/testlog"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	testlog.Start(t)
	RegisterMetrics()
	RegisterMetrics()

	RecordBridgeFrame("bridge-a", DirBusIn)
	RecordBridgeFrame("bridge-a", DirBusOut)
	RecordBridgeDrop("bridge-a", DropSlowClient)
	SetBridgeClients("bridge-a", 2)
	RecordDevicePoll("loopback", 120*time.Microsecond)

	logging.Logf("observability: registration idempotent and recording paths executed")
}
