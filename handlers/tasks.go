package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"taskman/middleware"
	"taskman/models"
	"taskman/store"
)

const (
	defaultPage     = 1
	defaultPageSize = 10
)

// Tasks serves the owner-scoped task CRUD. Every operation resolves
// the caller from the request context and never touches tasks owned
// by anyone else; a foreign task id is answered exactly like a missing
// one.
type Tasks struct {
	Store store.TaskStore
}

// List returns the caller's tasks, filtered, newest first, one page at
// a time. There is no total count: a short page means the last page.
func (h *Tasks) List(w http.ResponseWriter, r *http.Request) {
	owner, ok := caller(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := store.Filter{
		Search:   q.Get("search"),
		Status:   q.Get("status"),
		Page:     positiveIntOr(q.Get("page"), defaultPage),
		PageSize: positiveIntOr(q.Get("limit"), defaultPageSize),
	}

	tasks, err := h.Store.List(r.Context(), owner, filter)
	if err != nil {
		serverError(w, "list tasks", err)
		return
	}

	writeJSON(w, http.StatusOK, tasks)
}

func (h *Tasks) Create(w http.ResponseWriter, r *http.Request) {
	owner, ok := caller(w, r)
	if !ok {
		return
	}

	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Title == "" {
		writeMessage(w, http.StatusBadRequest, "Title is required")
		return
	}

	task, err := h.Store.Create(r.Context(), owner, req.Title, req.Description)
	if err != nil {
		serverError(w, "create task", err)
		return
	}

	writeJSON(w, http.StatusCreated, task)
}

func (h *Tasks) Get(w http.ResponseWriter, r *http.Request) {
	owner, ok := caller(w, r)
	if !ok {
		return
	}
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	task, err := h.Store.ByID(r.Context(), owner, id)
	if err != nil {
		taskError(w, "get task", err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// Update applies only the supplied fields. The existence check and the
// write are separate steps; concurrent writers race and the last one
// wins.
func (h *Tasks) Update(w http.ResponseWriter, r *http.Request) {
	owner, ok := caller(w, r)
	if !ok {
		return
	}
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	var req struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Status      *string `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Status != nil && !models.ValidStatus(*req.Status) {
		writeMessage(w, http.StatusBadRequest, "Status must be pending or completed")
		return
	}

	if _, err := h.Store.ByID(r.Context(), owner, id); err != nil {
		taskError(w, "get task", err)
		return
	}

	task, err := h.Store.Update(r.Context(), owner, id, store.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		taskError(w, "update task", err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

func (h *Tasks) Delete(w http.ResponseWriter, r *http.Request) {
	owner, ok := caller(w, r)
	if !ok {
		return
	}
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	if _, err := h.Store.ByID(r.Context(), owner, id); err != nil {
		taskError(w, "get task", err)
		return
	}

	if err := h.Store.Delete(r.Context(), owner, id); err != nil {
		taskError(w, "delete task", err)
		return
	}

	writeMessage(w, http.StatusOK, "Task deleted")
}

// Toggle flips a task between pending and completed.
func (h *Tasks) Toggle(w http.ResponseWriter, r *http.Request) {
	owner, ok := caller(w, r)
	if !ok {
		return
	}
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	task, err := h.Store.ByID(r.Context(), owner, id)
	if err != nil {
		taskError(w, "get task", err)
		return
	}

	next := models.StatusPending
	if task.Status == models.StatusPending {
		next = models.StatusCompleted
	}

	updated, err := h.Store.Update(r.Context(), owner, id, store.TaskPatch{Status: &next})
	if err != nil {
		taskError(w, "toggle task", err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func caller(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	owner, ok := middleware.UserID(r.Context())
	if !ok {
		// Only reachable if a route was wired without RequireAuth.
		writeMessage(w, http.StatusUnauthorized, "No token provided")
		return uuid.Nil, false
	}
	return owner, true
}

// taskID parses the path id. A non-numeric id cannot name any task, so
// it is answered as not found rather than as a malformed request.
func taskID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeMessage(w, http.StatusNotFound, "Task not found")
		return 0, false
	}
	return id, true
}

func taskError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeMessage(w, http.StatusNotFound, "Task not found")
		return
	}
	serverError(w, op, err)
}

// positiveIntOr mirrors the frontend contract: anything that does not
// parse to a positive integer falls back to the default.
func positiveIntOr(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
