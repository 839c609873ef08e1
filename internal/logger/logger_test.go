package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/babylon-finance/price-resolver/internal/logger"
)

func TestNew_AttachesServiceAttr(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&buf, logger.LevelInfo, "price-resolver", nil)

	log.Info(context.Background(), "started", "pairs", 2)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if record["service"] != "price-resolver" {
		t.Errorf("service = %v, want price-resolver", record["service"])
	}
	if record["msg"] != "started" {
		t.Errorf("msg = %v, want started", record["msg"])
	}
	if record["pairs"] != float64(2) {
		t.Errorf("pairs = %v, want 2", record["pairs"])
	}
}

func TestNew_RespectsMinLevel(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&buf, logger.LevelWarn, "price-resolver", nil)

	log.Debug(context.Background(), "noise")
	log.Info(context.Background(), "noise")
	if buf.Len() != 0 {
		t.Fatalf("sub-threshold records written: %s", buf.String())
	}

	log.Warn(context.Background(), "kept")
	if buf.Len() == 0 {
		t.Fatal("warn record dropped")
	}
}

func TestNew_TraceIDFromContext(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&buf, logger.LevelInfo, "price-resolver", func(ctx context.Context) string {
		return "abc123"
	})

	log.Info(context.Background(), "traced")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if record["trace_id"] != "abc123" {
		t.Errorf("trace_id = %v, want abc123", record["trace_id"])
	}
}
