package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"merco-go/internal/apperr"
	"merco-go/internal/task"
	"merco-go/internal/timeframe"
)

var validate = validator.New()

// createFetchTaskRequest is POST /tasks/fetch's body.
type createFetchTaskRequest struct {
	Exchange  string     `json:"exchange" validate:"required"`
	Symbol    string     `json:"symbol" validate:"required"`
	Timeframe string     `json:"timeframe" validate:"required"`
	Start     *time.Time `json:"start,omitempty"`
	End       *time.Time `json:"end,omitempty"`
}

// handleTasksCollection answers GET /tasks.
func (s *Server) handleTasksCollection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	tasks := s.orchestrator.GetAllTasks()
	dtos := make([]taskDTO, 0, len(tasks))
	for _, t := range tasks {
		dtos = append(dtos, toTaskDTO(t))
	}
	writeJSON(w, dtos)
}

// handleTaskByID answers GET /tasks/{id}.
func (s *Server) handleTaskByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	idStr := strings.TrimPrefix(r.URL.Path, "/tasks/")
	idStr = strings.Trim(idStr, "/")
	if idStr == "" || idStr == "stream" || idStr == "fetch" {
		http.NotFound(w, r)
		return
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		apperr.WriteError(r.Context(), w, apperr.BadRequest("invalid task id"))
		return
	}

	t, ok := s.orchestrator.GetTask(id)
	if !ok {
		apperr.WriteError(r.Context(), w, apperr.NotFound(fmt.Sprintf("task %s not found", id)))
		return
	}
	writeJSON(w, toTaskDTO(t))
}

// handleCreateFetchTask answers POST /tasks/fetch.
func (s *Server) handleCreateFetchTask(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req createFetchTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.WriteError(r.Context(), w, apperr.BadRequest("invalid request body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		apperr.WriteError(r.Context(), w, apperr.BadRequest(err.Error()))
		return
	}

	tf, err := timeframe.Parse(req.Timeframe)
	if err != nil {
		apperr.WriteError(r.Context(), w, apperr.BadRequest(err.Error()))
		return
	}

	cfg := task.Config{FetchCandles: &task.FetchCandlesConfig{
		Exchange:  req.Exchange,
		Symbol:    req.Symbol,
		Timeframe: tf,
		Start:     req.Start,
		End:       req.End,
	}}

	id, err := s.orchestrator.CreateTask(r.Context(), cfg)
	if err != nil {
		apperr.WriteError(r.Context(), w, apperr.Internal("create fetch task", err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]any{"task_id": id, "status": task.StatusPending})
}

// handleTaskStream answers GET /tasks/stream: Server-Sent Events, one
// JSON-encoded TaskEvent per data: line. On connect it replays a Create
// event per existing task, then forwards new events until the client
// disconnects or the server shuts down — spec §6's snapshot-then-subscribe
// contract.
func (s *Server) handleTaskStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		apperr.WriteError(r.Context(), w, apperr.Internal("streaming unsupported", nil))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	events, cancel := s.orchestrator.Subscribe()
	defer cancel()

	for _, t := range s.orchestrator.GetAllTasks() {
		snapshot := t
		writeSSE(w, toTaskEventDTO(task.Event{Kind: task.EventCreate, TaskID: t.ID, Task: &snapshot}))
	}
	flusher.Flush()

	keepAlive := time.NewTicker(15 * time.Second)
	defer keepAlive.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case ev, ok := <-events:
			if !ok {
				return
			}
			writeSSE(w, toTaskEventDTO(ev))
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
}
