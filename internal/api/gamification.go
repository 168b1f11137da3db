package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	"github.com/squadplanner/squadxp/internal/app/gamification"
	"github.com/squadplanner/squadxp/internal/domain"
	"github.com/squadplanner/squadxp/internal/infra/metrics"
)

// ─── Gamification API (/api/gamification/*) ────────────────────────────────

// stateResponse is the full state plus the derived views.
type stateResponse struct {
	domain.State
	Title    string          `json:"title"`
	Progress domain.Progress `json:"progress"`
}

func newStateResponse(st domain.State) stateResponse {
	return stateResponse{
		State:    st,
		Title:    gamification.Title(st.Level),
		Progress: gamification.ComputeProgress(st.XP, st.Level),
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newStateResponse(s.engine.State()))
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Progress())
}

func (s *Server) handleTitle(w http.ResponseWriter, r *http.Request) {
	st := s.engine.State()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"level": st.Level,
		"title": gamification.Title(st.Level),
	})
}

func (s *Server) handleAchievements(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"achievements": s.engine.Catalogue(),
	})
}

func (s *Server) handleActions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"actions": gamification.Rewards(),
	})
}

// --- POST /xp/{action} ---

func (s *Server) handleAddXP(w http.ResponseWriter, r *http.Request) {
	action := domain.Action(chi.URLParam(r, "action"))

	award, ok := s.engine.AddXP(action)
	if !ok {
		metrics.UnknownActions.Inc()
		writeError(w, http.StatusNotFound, fmt.Errorf("%w: %s", domain.ErrUnknownAction, action).Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"award": award,
		"state": newStateResponse(s.engine.State()),
	})
}

// --- POST /stats/{name} ---

type incrementRequest struct {
	Amount *int `json:"amount,omitempty"`
}

func (s *Server) handleIncrementStat(w http.ResponseWriter, r *http.Request) {
	name := domain.StatName(chi.URLParam(r, "name"))
	if !slices.Contains(domain.CounterStats, name) {
		writeError(w, http.StatusNotFound, fmt.Errorf("%w: %s", domain.ErrUnknownStat, name).Error())
		return
	}

	var req incrementRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	amount := 1
	if req.Amount != nil {
		amount = *req.Amount
	}

	if !s.engine.IncrementStat(name, amount) {
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("%s cannot be decreased", name))
		return
	}
	writeJSON(w, http.StatusOK, s.engine.State().Stats)
}

// --- POST /sync ---

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	var remote domain.RemoteProfile
	if err := decodeOptional(r, &remote); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	adopted := s.engine.SyncFromDB(remote)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"adopted": adopted,
		"state":   newStateResponse(s.engine.State()),
	})
}

// --- POST /pending/*/dismiss ---

func (s *Server) handleDismissLevelUp(w http.ResponseWriter, r *http.Request) {
	s.engine.DismissLevelUp()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDismissAchievement(w http.ResponseWriter, r *http.Request) {
	s.engine.DismissAchievement()
	w.WriteHeader(http.StatusNoContent)
}

// decodeOptional decodes a JSON body into v; an empty body leaves v as is.
func decodeOptional(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
