package obs

import "context"

type contextKey string

const (
	taskIDKey contextKey = "task_id"
	flowIDKey contextKey = "flow_id"
	symbolKey contextKey = "symbol"
)

// RunInfo carries trace identifiers through a request context. FlowID
// spans a fetch→backtest chain triggered from the same HTTP request;
// TaskID identifies the single orchestrator task currently executing.
type RunInfo struct {
	TaskID string
	FlowID string
	Symbol string
}

// WithRunInfo attaches non-empty RunInfo fields to ctx.
func WithRunInfo(ctx context.Context, info RunInfo) context.Context {
	if info.TaskID != "" {
		ctx = context.WithValue(ctx, taskIDKey, info.TaskID)
	}
	if info.FlowID != "" {
		ctx = context.WithValue(ctx, flowIDKey, info.FlowID)
	}
	if info.Symbol != "" {
		ctx = context.WithValue(ctx, symbolKey, info.Symbol)
	}
	return ctx
}

// RunInfoFromContext reads back whatever RunInfo fields were attached.
func RunInfoFromContext(ctx context.Context) RunInfo {
	info := RunInfo{}
	if v, ok := ctx.Value(taskIDKey).(string); ok {
		info.TaskID = v
	}
	if v, ok := ctx.Value(flowIDKey).(string); ok {
		info.FlowID = v
	}
	if v, ok := ctx.Value(symbolKey).(string); ok {
		info.Symbol = v
	}
	return info
}

// WithFlowID attaches a flow_id to ctx, tracing a fetch→backtest chain.
func WithFlowID(ctx context.Context, flowID string) context.Context {
	if flowID == "" {
		return ctx
	}
	return context.WithValue(ctx, flowIDKey, flowID)
}

// FlowIDFromContext retrieves the flow_id set by WithFlowID.
func FlowIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(flowIDKey).(string); ok {
		return v
	}
	return ""
}
