package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/server/models"
	"github.com/dmitrijs2005/todokeeper/internal/timex"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) username(r *http.Request) string {
	u, _ := UsernameFrom(r.Context())
	return u
}

func (h *Handler) today() time.Time {
	return timex.Today(h.clock)
}

func decodeTaskRequest(r *http.Request) (taskRequest, time.Time, error) {
	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, time.Time{}, errors.New("malformed request body")
	}
	if req.DueDate == "" {
		return req, time.Time{}, nil
	}
	due, err := timex.ParseDate(req.DueDate)
	if err != nil {
		return req, time.Time{}, errors.New("dueDate must be YYYY-MM-DD")
	}
	return req, due, nil
}

func (h *Handler) listTasks() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := h.tasks.List(r.Context(), h.username(r), r.URL.Query().Get("sortBy"))
		h.writeTasks(w, r, list, err)
	}
}

func (h *Handler) overdueTasks() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := h.tasks.Overdue(r.Context(), h.username(r))
		h.writeTasks(w, r, list, err)
	}
}

func (h *Handler) completedTasks() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := h.tasks.Completed(r.Context(), h.username(r))
		h.writeTasks(w, r, list, err)
	}
}

func (h *Handler) incompleteTasks() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := h.tasks.Incomplete(r.Context(), h.username(r))
		h.writeTasks(w, r, list, err)
	}
}

func (h *Handler) dueSoonTasks() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := h.tasks.DueSoon(r.Context(), h.username(r))
		h.writeTasks(w, r, list, err)
	}
}

func (h *Handler) writeTasks(w http.ResponseWriter, r *http.Request, list []*models.Task, err error) {
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskResponses(list, h.today()))
}

func (h *Handler) createTask() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, due, err := decodeTaskRequest(r)
		if err != nil {
			badRequest(w, err.Error())
			return
		}

		task, err := h.tasks.Create(r.Context(), h.username(r), req.Title, req.Description, due)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toTaskResponse(task, h.today()))
	}
}

func (h *Handler) getTask() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		task, err := h.tasks.Get(r.Context(), chi.URLParam(r, "id"), h.username(r))
		h.writeTask(w, r, task, err)
	}
}

func (h *Handler) updateTask() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, due, err := decodeTaskRequest(r)
		if err != nil {
			badRequest(w, err.Error())
			return
		}

		task, err := h.tasks.Edit(r.Context(), chi.URLParam(r, "id"), h.username(r), req.Title, req.Description, due)
		h.writeTask(w, r, task, err)
	}
}

func (h *Handler) toggleTask() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		task, err := h.tasks.Toggle(r.Context(), chi.URLParam(r, "id"), h.username(r))
		h.writeTask(w, r, task, err)
	}
}

func (h *Handler) deleteTask() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.tasks.Delete(r.Context(), chi.URLParam(r, "id"), h.username(r)); err != nil {
			h.writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) writeTask(w http.ResponseWriter, r *http.Request, task *models.Task, err error) {
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskResponse(task, h.today()))
}

func (h *Handler) exportTasks() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.exports == nil {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "export is not configured"})
			return
		}

		res, err := h.exports.Export(r.Context(), h.username(r), r.URL.Query().Get("format"))
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, exportResponse{Key: res.Key, URL: res.URL, Format: string(res.Format), Tasks: res.Tasks})
	}
}
