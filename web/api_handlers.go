package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"statuslookup/application"
	"statuslookup/wizard"
)

type applicationResponse struct {
	SubmissionID string `json:"submissionId"`
	Status       string `json:"status"`
	LastUpdated  string `json:"lastUpdated"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleApplication(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid submission id"})
		return
	}

	rec, err := s.lookup.Find(r.Context(), id)
	if err != nil {
		if errors.Is(err, application.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: wizard.NotFoundMessage})
			return
		}
		if r.Context().Err() != nil {
			return
		}
		s.logger.Error("api lookup failed", zap.String("submission_id", id), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, applicationResponse{
		SubmissionID: rec.SubmissionID,
		Status:       rec.Status,
		LastUpdated:  rec.LastUpdatedDate(),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
