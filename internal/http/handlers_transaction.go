package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bilancio/internal/core"
)

// CategoryLister is the read-only slice of storage the category endpoint needs.
type CategoryLister interface {
	ListCategories(ctx context.Context) ([]core.Category, error)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErrorMessage(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	tx, err := req.toDomain(OwnerID(r.Context()), "")
	if err != nil {
		respondError(w, r, err)
		return
	}

	saved, err := s.transactions.Create(r.Context(), tx)
	if err != nil {
		respondError(w, r, err)
		return
	}

	s.insights.Invalidate(saved.OwnerID)
	respondJSON(w, http.StatusCreated, toTransactionResponse(saved))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseListRange(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	records, err := s.transactions.List(r.Context(), OwnerID(r.Context()), from, to)
	if err != nil {
		respondError(w, r, err)
		return
	}

	out := make([]transactionResponse, 0, len(records))
	for _, tx := range records {
		out = append(out, toTransactionResponse(tx))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := s.transactions.Get(r.Context(), OwnerID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toTransactionResponse(tx))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErrorMessage(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	tx, err := req.toDomain(OwnerID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	updated, err := s.transactions.Update(r.Context(), tx)
	if err != nil {
		respondError(w, r, err)
		return
	}

	s.insights.Invalidate(updated.OwnerID)
	respondJSON(w, http.StatusOK, toTransactionResponse(updated))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	ownerID := OwnerID(r.Context())
	if err := s.transactions.Delete(r.Context(), ownerID, chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}

	s.insights.Invalidate(ownerID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.categories.ListCategories(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	out := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, categoryResponse{
			ID:    c.ID,
			Name:  c.Name,
			Kind:  string(c.Kind),
			Icon:  c.Icon,
			Color: c.Color,
		})
	}
	respondJSON(w, http.StatusOK, out)
}
