package task

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"merco-go/internal/clock"
	"merco-go/internal/eventbus"
	"merco-go/internal/obs"
)

// Runner executes one task's work. Implementations live in the
// fetchworker and backtest packages; the orchestrator only knows about
// this capability, keyed by Type, to avoid depending on either.
type Runner interface {
	Run(ctx context.Context, cfg Config, report func(progress float64)) (result any, err error)
}

// Orchestrator is the task registry plus event bus described in spec §4.2:
// a UUID -> Task map protected by a readers-writer discipline, and a
// broadcast of TaskEvent to every live subscriber.
type Orchestrator struct {
	mu      sync.RWMutex
	tasks   map[uuid.UUID]Task
	bus     *eventbus.Bus[Event]
	runners map[Type]Runner
	clock   clock.Clock
	metrics *obs.ServiceMetrics
}

// Option configures an Orchestrator at construction time.
type Option func(*Orchestrator)

// WithClock overrides the default system clock (for deterministic tests).
func WithClock(c clock.Clock) Option {
	return func(o *Orchestrator) { o.clock = c }
}

// WithMetrics attaches a ServiceMetrics instance to record task counters.
func WithMetrics(m *obs.ServiceMetrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// New builds an Orchestrator. runners must have an entry for every Type
// the caller intends to create tasks of; a missing runner fails
// create_task synchronously.
func New(runners map[Type]Runner, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		tasks:   make(map[uuid.UUID]Task),
		bus:     eventbus.New[Event](eventbus.DefaultBufferSize),
		runners: runners,
		clock:   clock.System{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// CreateTask allocates a task in Pending state, registers it, emits
// Create, and spawns an independent goroutine to execute it. It returns
// immediately; the caller never blocks on the task's work.
func (o *Orchestrator) CreateTask(ctx context.Context, config Config) (uuid.UUID, error) {
	runner, ok := o.runners[config.Type()]
	if !ok {
		return uuid.Nil, fmt.Errorf("task: no runner registered for type %q", config.Type())
	}

	t := New(config, o.clock.Now())

	o.mu.Lock()
	o.tasks[t.ID] = t
	o.mu.Unlock()

	snapshot := t
	o.bus.Publish(Event{Kind: EventCreate, TaskID: t.ID, Task: &snapshot})
	if o.metrics != nil {
		o.metrics.TasksCreated.Inc("task_type", string(t.Type))
	}

	go o.execute(ctx, t.ID, runner, config)

	return t.ID, nil
}

func (o *Orchestrator) execute(ctx context.Context, taskID uuid.UUID, runner Runner, config Config) {
	defer func() {
		if r := recover(); r != nil {
			o.failTask(ctx, taskID, fmt.Errorf("task panicked: %v", r))
		}
	}()

	o.updateStatus(ctx, taskID, StatusRunning)

	result, err := runner.Run(ctx, config, func(progress float64) {
		o.updateProgress(ctx, taskID, progress)
	})
	if err != nil {
		o.failTask(ctx, taskID, err)
		return
	}
	o.completeTask(ctx, taskID, result)
}

// GetTask is a snapshot read of one task.
func (o *Orchestrator) GetTask(id uuid.UUID) (Task, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	t, ok := o.tasks[id]
	return t, ok
}

// GetAllTasks is a snapshot of every current task, unspecified order.
func (o *Orchestrator) GetAllTasks() []Task {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]Task, 0, len(o.tasks))
	for _, t := range o.tasks {
		out = append(out, t)
	}
	return out
}

// Subscribe returns a channel of future events. Callers that want a
// consistent view should call GetAllTasks first, then begin reading the
// subscription — the stream may include events already reflected in the
// snapshot (an idempotent Create by id is tolerable).
func (o *Orchestrator) Subscribe() (<-chan Event, func()) {
	return o.bus.Subscribe()
}

func (o *Orchestrator) updateProgress(ctx context.Context, id uuid.UUID, progress float64) {
	o.mu.Lock()
	t, ok := o.tasks[id]
	if !ok {
		o.mu.Unlock()
		return
	}
	t.Progress = progress
	t.UpdatedAt = o.clock.Now()
	o.tasks[id] = t
	o.mu.Unlock()

	o.bus.Publish(Event{Kind: EventProgress, TaskID: id, Progress: progress, Status: t.Status})
}

func (o *Orchestrator) updateStatus(ctx context.Context, id uuid.UUID, status Status) {
	o.mu.Lock()
	t, ok := o.tasks[id]
	if !ok {
		o.mu.Unlock()
		return
	}
	now := o.clock.Now()
	t.Status = status
	t.UpdatedAt = now
	if status == StatusRunning && t.StartedAt == nil {
		t.StartedAt = &now
	}
	o.tasks[id] = t
	o.mu.Unlock()

	obs.LogTaskEvent(ctx, "task_status", string(status), t.Progress)
	o.bus.Publish(Event{Kind: EventStatus, TaskID: id, Status: status})
}

func (o *Orchestrator) completeTask(ctx context.Context, id uuid.UUID, result any) {
	o.mu.Lock()
	t, ok := o.tasks[id]
	if !ok {
		o.mu.Unlock()
		return
	}
	now := o.clock.Now()
	t.Status = StatusCompleted
	t.Progress = 100
	t.Result = result
	t.CompletedAt = &now
	t.UpdatedAt = now
	o.tasks[id] = t
	o.mu.Unlock()

	if o.metrics != nil {
		o.metrics.TasksCompleted.Inc("status", string(StatusCompleted))
	}
	obs.LogTaskEvent(ctx, "task_completed", string(StatusCompleted), 100)
	o.bus.Publish(Event{Kind: EventComplete, TaskID: id, Result: result})
}

func (o *Orchestrator) failTask(ctx context.Context, id uuid.UUID, cause error) {
	o.mu.Lock()
	t, ok := o.tasks[id]
	if !ok {
		o.mu.Unlock()
		return
	}
	now := o.clock.Now()
	t.Status = StatusFailed
	t.ErrorMessage = cause.Error()
	t.CompletedAt = &now
	t.UpdatedAt = now
	o.tasks[id] = t
	o.mu.Unlock()

	if o.metrics != nil {
		o.metrics.TasksCompleted.Inc("status", string(StatusFailed))
	}
	obs.LogEvent(ctx, "error", "task_failed", map[string]any{"error": cause.Error()})
	o.bus.Publish(Event{Kind: EventFail, TaskID: id, Error: cause.Error()})
}
