package http

import (
	"net/http"
)

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	window, err := parseWindow(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	snap, err := s.insights.Summary(r.Context(), OwnerID(r.Context()), window)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, summaryResponse{
		PeriodIncome:       snap.PeriodIncome.DecimalString(),
		PeriodExpenses:     snap.PeriodExpenses.DecimalString(),
		TotalBalance:       snap.TotalBalance.DecimalString(),
		SavingsRatePercent: snap.SavingsRatePercent,
	})
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	window, err := parseWindow(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	insights, err := s.insights.Trends(r.Context(), OwnerID(r.Context()), window)
	if err != nil {
		respondError(w, r, err)
		return
	}

	out := make([]insightResponse, 0, len(insights))
	for _, in := range insights {
		out = append(out, insightResponse{
			CategoryID:     in.CategoryID,
			Total:          in.Total.DecimalString(),
			Trend:          string(in.Trend),
			Recommendation: in.Recommendation,
		})
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	window, err := parseWindow(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	suggestions, err := s.insights.Suggestions(r.Context(), OwnerID(r.Context()), window)
	if err != nil {
		respondError(w, r, err)
		return
	}

	out := make([]suggestionResponse, 0, len(suggestions))
	for _, sg := range suggestions {
		out = append(out, suggestionResponse{
			ID:          sg.ID,
			Type:        string(sg.Type),
			Title:       sg.Title,
			Description: sg.Description,
			Priority:    sg.Priority,
		})
	}
	respondJSON(w, http.StatusOK, out)
}
