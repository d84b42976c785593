package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"ytframes/internal/logging"
	"ytframes/internal/services"
	"ytframes/internal/session"
	"ytframes/internal/workflow"
)

// maxStartBody bounds POST /api/sessions bodies.
const maxStartBody = 64 << 10

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stages := s.pipeline.Health(r.Context())
	resp := HealthResponse{Ready: true, Stages: FromStageHealth(stages)}
	for _, st := range stages {
		if !st.Ready {
			resp.Ready = false
		}
	}
	code := http.StatusOK
	if !resp.Ready {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

func (s *server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.status == nil {
		writeError(w, r, http.StatusNotFound, "status not available")
		return
	}
	writeJSON(w, http.StatusOK, s.status(r.Context()))
}

func (s *server) handleList(w http.ResponseWriter, r *http.Request) {
	var statuses []session.Status
	for _, raw := range r.URL.Query()["status"] {
		for _, value := range strings.Split(raw, ",") {
			if strings.TrimSpace(value) == "" {
				continue
			}
			st, err := session.ParseStatus(value)
			if err != nil {
				writeError(w, r, http.StatusBadRequest, err.Error())
				return
			}
			statuses = append(statuses, st)
		}
	}
	sessions, err := s.pipeline.Store().List(r.Context(), statuses...)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionListResponse{Sessions: FromSessions(sessions)})
}

func (s *server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxStartBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	sess, err := s.pipeline.Create(r.Context(), req.URL, workflow.StartOptions{
		TriggerWord:     req.TriggerWord,
		DatasetName:     req.DatasetName,
		IntervalSeconds: req.IntervalSeconds,
		FrameStep:       req.FrameStep,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	// The background run owns sess from here on.
	body := SessionResponse{Session: FromSession(sess)}
	s.pipeline.Go(s.runCtx, sess, nil)
	w.Header().Set("Location", "/api/sessions/"+body.Session.ID)
	writeJSON(w, http.StatusAccepted, body)
}

func (s *server) handleDescribe(w http.ResponseWriter, r *http.Request) {
	sess, err := s.pipeline.Store().Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{Session: FromSession(sess)})
}

func (s *server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.pipeline.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleCandidates(w http.ResponseWriter, r *http.Request) {
	sess, rows, err := s.pipeline.Candidates(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CandidatesResponse{
		Session:    FromSession(sess),
		Candidates: FromFrames(sess.ID, rows),
	})
}

func (s *server) handleThumbnail(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r)
	if !ok {
		return
	}
	path, err := s.pipeline.Thumbnail(r.Context(), chi.URLParam(r, "id"), index)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "private, max-age=3600")
	http.ServeFile(w, r, path)
}

func (s *server) handleToggle(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r)
	if !ok {
		return
	}
	selected, err := s.pipeline.Toggle(r.Context(), chi.URLParam(r, "id"), index)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ToggleResponse{Index: index, Selected: selected})
}

func (s *server) handleSelectAll(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.pipeline.SelectAll(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeSelection(w, r, id)
}

func (s *server) handleClear(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.pipeline.ClearAll(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeSelection(w, r, id)
}

func (s *server) writeSelection(w http.ResponseWriter, r *http.Request, id string) {
	set, err := s.pipeline.Selection(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SelectionResponse{
		Selected: set.SelectedIndices(),
		Count:    set.SelectedCount(),
		Total:    set.Len(),
	})
}

func (s *server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess, err := s.pipeline.Export(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{Session: FromSession(sess)})
}

func (s *server) handleArchive(w http.ResponseWriter, r *http.Request) {
	sess, err := s.pipeline.Store().Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if sess.Status != session.StatusDone || sess.ArchivePath == "" {
		writeError(w, r, http.StatusConflict, fmt.Sprintf("archive not built (status %s)", sess.Status))
		return
	}
	if _, err := os.Stat(sess.ArchivePath); err != nil {
		writeError(w, r, http.StatusGone, "archive file no longer exists")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(sess.ArchivePath)))
	http.ServeFile(w, r, sess.ArchivePath)
}

func (s *server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := StatusFor(err)
	if code >= http.StatusInternalServerError {
		logging.ErrorWithContext(logging.WithContext(r.Context(), s.logger), "request failed", "api_error",
			logging.String("path", r.URL.Path),
			logging.String(logging.FieldErrorHint, services.Hint(err)),
			logging.Error(err),
		)
	}
	writeError(w, r, code, err.Error())
}

func indexParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "candidate index must be an integer")
		return 0, false
	}
	return index, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	id, _ := services.RequestIDFromContext(r.Context())
	writeJSON(w, status, ErrorResponse{Error: message, RequestID: id})
}

