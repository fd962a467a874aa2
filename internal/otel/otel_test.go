package otel

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestInitMeterProvider(t *testing.T) {
	ctx := context.Background()
	handler, err := InitMeterProvider(ctx, "test-service")
	if err != nil {
		t.Fatalf("InitMeterProvider: %v", err)
	}
	if handler == nil {
		t.Fatal("InitMeterProvider: expected non-nil handler")
	}
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /metrics: status=%d", rec.Code)
	}
	if rec.Body.Len() == 0 {
		t.Fatal("GET /metrics: empty body")
	}
}

func TestRecordBeforeInit(t *testing.T) {
	// Must be safe no-ops before InitMetrics.
	ctx := context.Background()
	RecordClientOp(ctx, "project_list", true)
	RecordPollTick(ctx, "console", false)
	RecordStageRun(ctx, "build", true)
}

func TestInitMetrics(t *testing.T) {
	ctx := context.Background()
	if _, err := InitMeterProvider(ctx, "test"); err != nil {
		t.Fatalf("InitMeterProvider: %v", err)
	}
	if err := InitMetrics(ctx); err != nil {
		t.Fatalf("InitMetrics: %v", err)
	}
	RecordClientOp(ctx, "project_switch", true)
	RecordPollTick(ctx, "process", true)
	RecordStageRun(ctx, "test", false)
}
