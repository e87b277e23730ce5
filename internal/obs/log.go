package obs

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"
)

var logger = log.New(os.Stdout, "", 0)

// LogEvent is the single structured-logging entry point: one JSON object
// per line on stdout, with trace fields merged in from ctx.
func LogEvent(ctx context.Context, level, event string, fields map[string]any) {
	payload := map[string]any{
		"ts":    time.Now().UTC().Format(time.RFC3339),
		"level": level,
		"event": event,
	}

	info := RunInfoFromContext(ctx)
	if info.TaskID != "" {
		payload["task_id"] = info.TaskID
	}
	if info.FlowID != "" {
		payload["flow_id"] = info.FlowID
	}
	if info.Symbol != "" {
		payload["symbol"] = info.Symbol
	}

	for key, value := range normalizeFields(fields) {
		payload[key] = value
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		logger.Printf("{\"level\":\"error\",\"event\":\"log_marshal_failed\",\"error\":%q}", err.Error())
		return
	}
	logger.Print(string(raw))
}

// LogTaskEvent records an orchestrator lifecycle transition.
func LogTaskEvent(ctx context.Context, event string, status string, progress float64) {
	LogEvent(ctx, "info", event, map[string]any{
		"status":   status,
		"progress": progress,
	})
}

// LogWorkerStep records one step of a fetch-worker or backtest-engine loop.
func LogWorkerStep(ctx context.Context, step string, duration time.Duration, err error) {
	fields := map[string]any{
		"step":       step,
		"latency_ms": duration.Milliseconds(),
		"success":    err == nil,
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	LogEvent(ctx, "info", "worker_step", fields)
}

func normalizeFields(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}
	out := make(map[string]any, len(fields))
	for key, value := range fields {
		switch key {
		case "config", "source_config":
			out[key] = RedactValue(value)
			continue
		}
		if err, ok := value.(error); ok {
			out[key] = err.Error()
			continue
		}
		out[key] = value
	}
	return out
}
