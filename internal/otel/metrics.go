package otel

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/metric"
)

var (
	initMetricsOnce  sync.Once
	clientOpsCounter metric.Int64Counter
	pollTicksCounter metric.Int64Counter
	stageRunsCounter metric.Int64Counter
)

// InitMetrics creates the meter instruments. Safe to call multiple times; only runs once.
// Call after InitMeterProvider.
func InitMetrics(ctx context.Context) error {
	var err error
	initMetricsOnce.Do(func() {
		m := Meter()
		clientOpsCounter, err = m.Int64Counter("aioffice_client_requests_total", metric.WithDescription("Total control-plane requests by operation and outcome"))
		if err != nil {
			return
		}
		pollTicksCounter, err = m.Int64Counter("aioffice_poll_ticks_total", metric.WithDescription("Total poll rounds by component and outcome"))
		if err != nil {
			return
		}
		stageRunsCounter, err = m.Int64Counter("aioffice_stage_runs_total", metric.WithDescription("Total build/test/run executions by stage and outcome"))
	})
	return err
}

func outcome(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}

// RecordClientOp records one control-plane request.
func RecordClientOp(ctx context.Context, op string, ok bool) {
	if clientOpsCounter == nil {
		return
	}
	clientOpsCounter.Add(ctx, 1, metric.WithAttributes(
		AttrOp.String(op),
		AttrOutcome.String(outcome(ok)),
	))
}

// RecordPollTick records one poll round for a polling component.
func RecordPollTick(ctx context.Context, component string, ok bool) {
	if pollTicksCounter == nil {
		return
	}
	pollTicksCounter.Add(ctx, 1, metric.WithAttributes(
		AttrComponent.String(component),
		AttrOutcome.String(outcome(ok)),
	))
}

// RecordStageRun records one build/test/run execution.
func RecordStageRun(ctx context.Context, stage string, ok bool) {
	if stageRunsCounter == nil {
		return
	}
	stageRunsCounter.Add(ctx, 1, metric.WithAttributes(
		AttrStage.String(stage),
		AttrOutcome.String(outcome(ok)),
	))
}
