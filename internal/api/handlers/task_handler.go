package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/taskhive/taskhive-be/internal/auth"
	"github.com/taskhive/taskhive-be/internal/services"
)

// TaskHandler handles HTTP requests for tasks. Every route it serves
// sits behind the auth guard, so a missing principal is a server bug,
// not a client error.
type TaskHandler struct {
	service services.TaskServiceProvider
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(service services.TaskServiceProvider) *TaskHandler {
	return &TaskHandler{service: service}
}

func mustPrincipal(w http.ResponseWriter, r *http.Request) (auth.Principal, bool) {
	p, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		log.Error().Str("path", r.URL.Path).Msg("Handler reached without principal")
		writeError(w, http.StatusInternalServerError, "Could not retrieve user from token")
	}
	return p, ok
}

// Create handles the request to create a new task. The owner is always
// the caller; any owner field in the body is ignored.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := mustPrincipal(w, r)
	if !ok {
		return
	}

	var in services.CreateTaskInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	task, err := h.service.Create(r.Context(), p, in)
	if err != nil {
		status, msg := taskErrorStatus(err)
		if status == http.StatusInternalServerError {
			log.Error().Err(err).Str("user_id", p.ID).Msg("Failed to create task")
		}
		writeError(w, status, msg)
		return
	}

	writeJSON(w, http.StatusCreated, task)
}

// Get handles the request to fetch a single task by its ID.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := mustPrincipal(w, r)
	if !ok {
		return
	}

	task, err := h.service.Get(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		status, msg := taskErrorStatus(err)
		writeError(w, status, msg)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// ListMine handles the request for the caller's own tasks.
func (h *TaskHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	p, ok := mustPrincipal(w, r)
	if !ok {
		return
	}

	tasks, err := h.service.ListMine(r.Context(), p)
	if err != nil {
		log.Error().Err(err).Str("user_id", p.ID).Msg("Failed to list tasks")
		writeError(w, http.StatusInternalServerError, "Failed to get tasks")
		return
	}

	writeJSON(w, http.StatusOK, tasks)
}

// ListAll handles the admin request for every task in the system.
func (h *TaskHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	p, ok := mustPrincipal(w, r)
	if !ok {
		return
	}

	tasks, err := h.service.ListAll(r.Context(), p)
	if err != nil {
		status, msg := taskErrorStatus(err)
		if status == http.StatusInternalServerError {
			log.Error().Err(err).Str("user_id", p.ID).Msg("Failed to list all tasks")
		}
		writeError(w, status, msg)
		return
	}

	writeJSON(w, http.StatusOK, tasks)
}

// Update handles a partial update. Unknown fields in the body are
// rejected outright rather than silently dropped, so an owner or id
// field can never ride along.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := mustPrincipal(w, r)
	if !ok {
		return
	}

	var in services.UpdateTaskInput
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	task, err := h.service.Update(r.Context(), p, chi.URLParam(r, "id"), in)
	if err != nil {
		status, msg := taskErrorStatus(err)
		if status == http.StatusInternalServerError {
			log.Error().Err(err).Str("user_id", p.ID).Msg("Failed to update task")
		}
		writeError(w, status, msg)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// Toggle handles the request to flip a task's completed flag.
func (h *TaskHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	p, ok := mustPrincipal(w, r)
	if !ok {
		return
	}

	task, err := h.service.ToggleComplete(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		status, msg := taskErrorStatus(err)
		if status == http.StatusInternalServerError {
			log.Error().Err(err).Str("user_id", p.ID).Msg("Failed to toggle task")
		}
		writeError(w, status, msg)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// Delete handles the request to delete a task.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := mustPrincipal(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), p, chi.URLParam(r, "id")); err != nil {
		status, msg := taskErrorStatus(err)
		if status == http.StatusInternalServerError {
			log.Error().Err(err).Str("user_id", p.ID).Msg("Failed to delete task")
		}
		writeError(w, status, msg)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Task deleted successfully"})
}
