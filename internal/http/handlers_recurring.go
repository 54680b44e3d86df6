package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"bilancio/internal/core"
)

func (s *Server) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErrorMessage(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	sched, err := req.toDomain(OwnerID(r.Context()), "")
	if err != nil {
		respondError(w, r, err)
		return
	}

	saved, err := s.schedules.Create(r.Context(), sched)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toScheduleResponse(saved))
}

func (s *Server) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	schedules, err := s.schedules.List(r.Context(), OwnerID(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}

	out := make([]scheduleResponse, 0, len(schedules))
	for _, sched := range schedules {
		out = append(out, toScheduleResponse(sched))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	sched, err := s.schedules.Get(r.Context(), OwnerID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toScheduleResponse(sched))
}

func (s *Server) handleUpdateSchedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErrorMessage(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	sched, err := req.toDomain(OwnerID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	updated, err := s.schedules.Update(r.Context(), sched)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toScheduleResponse(updated))
}

func (s *Server) handleDeleteSchedule(w http.ResponseWriter, r *http.Request) {
	if err := s.schedules.Delete(r.Context(), OwnerID(r.Context()), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type projectionResponse struct {
	NextOccurrence *string `json:"next_occurrence"`
}

// handleProjectNext forecasts the next occurrence without persisting it.
// Inactive or lapsed schedules report null rather than a date.
func (s *Server) handleProjectNext(w http.ResponseWriter, r *http.Request) {
	asOf := core.DateOf(time.Now().UTC())
	if v := r.URL.Query().Get("as_of"); v != "" {
		parsed, err := core.ParseDate(v)
		if err != nil {
			respondError(w, r, &core.ValidationError{Field: "as_of", Reason: "expected YYYY-MM-DD"})
			return
		}
		asOf = parsed
	}

	next, ok, err := s.schedules.ProjectNext(r.Context(), OwnerID(r.Context()), chi.URLParam(r, "id"), asOf)
	if err != nil {
		respondError(w, r, err)
		return
	}

	resp := projectionResponse{}
	if ok {
		v := next.String()
		resp.NextOccurrence = &v
	}
	respondJSON(w, http.StatusOK, resp)
}
