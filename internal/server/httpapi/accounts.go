package httpapi

import (
	"encoding/json"
	"net/http"
)

func (h *Handler) register() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentialsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "malformed request body")
			return
		}

		acc, err := h.accounts.Register(r.Context(), req.Username, req.Password)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, accountResponse{ID: acc.ID, Username: acc.Username})
	}
}

func (h *Handler) login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentialsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "malformed request body")
			return
		}

		token, err := h.accounts.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, loginResponse{Token: token})
	}
}
