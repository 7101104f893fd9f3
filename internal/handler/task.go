package handler

import (
	"net/http"
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/lumia-Qcode/JetSetGo/internal/domain"
)

// TaskRequest is the body of POST and PATCH on tasks. On PATCH, omitted or
// empty fields keep their stored value.
type TaskRequest struct {
	Title   string              `json:"title"`
	DueDate *openapi_types.Date `json:"due_date"`
	DueTime *string             `json:"due_time"`
}

// Task is the JSON view of a to-do task. DueTime is "HH:MM".
type Task struct {
	Id        openapi_types.UUID  `json:"id"`
	Title     string              `json:"title"`
	DueDate   *openapi_types.Date `json:"due_date,omitempty"`
	DueTime   *string             `json:"due_time,omitempty"`
	Status    string              `json:"status"`
	CreatedAt time.Time           `json:"created_at"`
}

// ClearTasksResponse reports how many tasks DELETE /tasks removed.
type ClearTasksResponse struct {
	Deleted int64 `json:"deleted"`
}

// ListTasks handles GET /tasks.
func (s *Server) ListTasks(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r)
	if !ok {
		return
	}
	tasks, err := s.svc.Tasks.List(r.Context(), user)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		out[i] = taskToResponse(t)
	}
	writeJSON(w, http.StatusOK, out)
}

// AddTask handles POST /tasks.
func (s *Server) AddTask(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r)
	if !ok {
		return
	}
	var body TaskRequest
	if !decodeBody(w, r, &body) {
		return
	}
	t := domain.Task{Title: body.Title, DueTime: body.DueTime}
	if body.DueDate != nil {
		t.DueDate = &body.DueDate.Time
	}

	created, err := s.svc.Tasks.Add(r.Context(), user, t)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, taskToResponse(created))
}

// UpdateTask handles PATCH /tasks/{taskID}.
func (s *Server) UpdateTask(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r)
	if !ok {
		return
	}
	taskID, ok := pathUUID(w, r, "taskID")
	if !ok {
		return
	}
	var body TaskRequest
	if !decodeBody(w, r, &body) {
		return
	}
	patch := domain.TaskPatch{Title: body.Title, DueTime: body.DueTime}
	if body.DueDate != nil {
		patch.DueDate = &body.DueDate.Time
	}

	updated, err := s.svc.Tasks.Update(r.Context(), user, taskID, patch)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, taskToResponse(updated))
}

// ToggleTask handles POST /tasks/{taskID}/toggle.
func (s *Server) ToggleTask(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r)
	if !ok {
		return
	}
	taskID, ok := pathUUID(w, r, "taskID")
	if !ok {
		return
	}
	toggled, err := s.svc.Tasks.Toggle(r.Context(), user, taskID)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, taskToResponse(toggled))
}

// DeleteTask handles DELETE /tasks/{taskID}.
func (s *Server) DeleteTask(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r)
	if !ok {
		return
	}
	taskID, ok := pathUUID(w, r, "taskID")
	if !ok {
		return
	}
	if err := s.svc.Tasks.Delete(r.Context(), user, taskID); err != nil {
		s.serviceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearTasks handles DELETE /tasks.
func (s *Server) ClearTasks(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r)
	if !ok {
		return
	}
	n, err := s.svc.Tasks.Clear(r.Context(), user)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ClearTasksResponse{Deleted: n})
}

func taskToResponse(t domain.Task) Task {
	out := Task{
		Id:        t.ID,
		Title:     t.Title,
		DueTime:   t.DueTime,
		Status:    string(t.Status),
		CreatedAt: t.CreatedAt,
	}
	if t.DueDate != nil {
		out.DueDate = &openapi_types.Date{Time: *t.DueDate}
	}
	return out
}
