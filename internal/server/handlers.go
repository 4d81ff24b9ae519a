package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/meltforce/squatter/internal/analysis"
	"github.com/meltforce/squatter/internal/models"
	"github.com/meltforce/squatter/internal/reps"
	"github.com/meltforce/squatter/internal/storage"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// analyzeRequest is a session file plus the parameters needed to time it.
type analyzeRequest struct {
	models.TrackSession
	Name        string  `json:"name"`
	FPS         float64 `json:"fps"`
	IncludePath bool    `json:"include_path"`
}

type createSessionResponse struct {
	ID     uuid.UUID        `json:"id"`
	Report *analysis.Report `json:"report"`
}

func (s *Server) decodeAndAnalyze(w http.ResponseWriter, r *http.Request) (*analyzeRequest, *analysis.Report, bool) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return nil, nil, false
	}
	if req.FPS == 0 {
		req.FPS = s.defaultFPS
	}

	report, err := s.analyzer.Analyze(&req.TrackSession, req.FPS, req.IncludePath)
	if err != nil {
		if analysis.IsInputError(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return nil, nil, false
		}
		s.log.Error("analyze error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return nil, nil, false
	}
	return &req, report, true
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	_, report, ok := s.decodeAndAnalyze(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	req, report, ok := s.decodeAndAnalyze(w, r)
	if !ok {
		return
	}

	row, repRows, err := analysis.Rows(userIDFromContext(r), req.Name, &req.TrackSession, report)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	id, err := s.store.SaveSession(r.Context(), row, repRows)
	if err != nil {
		s.log.Error("save session", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	s.log.Info("session stored", "id", id, "exercise", report.Exercise, "reps", len(report.Reps))
	writeJSON(w, http.StatusCreated, createSessionResponse{ID: id, Report: report})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	exercise := r.URL.Query().Get("exercise")
	if exercise != "" {
		e, err := reps.ParseExercise(exercise)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		exercise = e.String()
	}

	limit := defaultListLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxListLimit)
	}

	rows, err := s.store.ListSessions(r.Context(), userIDFromContext(r), exercise, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if rows == nil {
		rows = []models.SessionRow{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session ID"})
		return
	}

	detail, err := s.store.GetSession(r.Context(), id, userIDFromContext(r))
	if errors.Is(err, storage.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session ID"})
		return
	}

	err = s.store.DeleteSession(r.Context(), id, userIDFromContext(r))
	if errors.Is(err, storage.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetDataStats(r.Context(), userIDFromContext(r))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleExercises(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, analysis.Profiles())
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
