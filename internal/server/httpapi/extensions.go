package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/todokeeper/internal/timex"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) extensionInfo() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info, err := h.extensions.Info(r.Context(), chi.URLParam(r, "id"), h.username(r))
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, extensionInfoResponse{
			TodoID:           info.TaskID,
			Title:            info.Title,
			CurrentDueDate:   timex.FormatDate(info.CurrentDueDate),
			MaxExtensionDays: info.MaxExtensionDays,
		})
	}
}

func (h *Handler) extendTask() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		fail := func(status int, msg string) {
			writeJSON(w, status, extendResponse{Success: false, Message: msg, TodoID: id})
		}

		var req extendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			fail(http.StatusBadRequest, "malformed request body")
			return
		}
		if req.TodoID == "" || req.ExtensionDays == nil {
			fail(http.StatusBadRequest, "todoId and extensionDays are required")
			return
		}
		if req.TodoID != id {
			fail(http.StatusBadRequest, "todoId does not match the request path")
			return
		}

		task, err := h.extensions.Extend(r.Context(), id, h.username(r), *req.ExtensionDays)
		if err != nil {
			status := statusFor(err)
			if status >= http.StatusInternalServerError {
				h.logger.Error(r.Context(), "extend failed", "task_id", id, "error", err)
			}
			fail(status, messageFor(status, err))
			return
		}

		total := task.TotalExtensionDays()
		resp := extendResponse{
			Success:            true,
			Message:            "due date extended",
			TodoID:             task.ID,
			NewDueDate:         timex.FormatDate(task.DueDate),
			TotalExtensionDays: &total,
		}
		if task.OriginalDueDate != nil {
			resp.OriginalDueDate = timex.FormatDate(*task.OriginalDueDate)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (h *Handler) previewExtension() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Unparsable counts become 0; the service rejects them after
		// resolving ownership.
		days, err := strconv.Atoi(r.URL.Query().Get("days"))
		if err != nil {
			days = 0
		}

		p, err := h.extensions.Preview(r.Context(), chi.URLParam(r, "id"), h.username(r), days)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, previewResponse{
			TodoID:         p.TaskID,
			CurrentDueDate: timex.FormatDate(p.CurrentDueDate),
			NewDueDate:     timex.FormatDate(p.NewDueDate),
			ExtensionDays:  p.ExtensionDays,
		})
	}
}

func (h *Handler) extensionEligibility() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		ok, err := h.extensions.IsEligible(r.Context(), id, h.username(r))
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, eligibilityResponse{TodoID: id, Eligible: ok})
	}
}

func (h *Handler) eligibleTasks() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := h.extensions.EligibleTasks(r.Context(), h.username(r))
		h.writeTasks(w, r, list, err)
	}
}
