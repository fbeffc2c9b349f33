package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lox/airguard/internal/htmlutil"
	"github.com/lox/airguard/internal/metrics"
	"github.com/lox/airguard/internal/models"
	"github.com/lox/airguard/internal/store"
)

type recommendationRequest struct {
	Text string `json:"text"`
}

func recommendationID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// writeStoreError maps store sentinels onto the JSON envelope.
func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "recommendation not found")
	case errors.Is(err, store.ErrEmptyText):
		writeError(w, http.StatusBadRequest, "text must not be empty")
	default:
		s.logger.Error("recommendation store", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleListRecommendations(w http.ResponseWriter, r *http.Request) {
	recs, err := s.store.ListRecommendations(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleGetRecommendation(w http.ResponseWriter, r *http.Request) {
	id, ok := recommendationID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid recommendation id")
		return
	}
	rec, err := s.store.GetRecommendation(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleCreateRecommendation(w http.ResponseWriter, r *http.Request) {
	var req recommendationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	rec, err := s.store.CreateRecommendation(r.Context(), htmlutil.CleanText(req.Text))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	metrics.RecommendationOps.WithLabelValues("create").Inc()
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleUpdateRecommendation(w http.ResponseWriter, r *http.Request) {
	id, ok := recommendationID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid recommendation id")
		return
	}
	var req recommendationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	rec, err := s.store.UpdateRecommendation(r.Context(), id, htmlutil.CleanText(req.Text))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	metrics.RecommendationOps.WithLabelValues("update").Inc()
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteRecommendation(w http.ResponseWriter, r *http.Request) {
	id, ok := recommendationID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid recommendation id")
		return
	}
	if err := s.store.DeleteRecommendation(r.Context(), id); err != nil {
		s.writeStoreError(w, err)
		return
	}
	metrics.RecommendationOps.WithLabelValues("delete").Inc()
	w.WriteHeader(http.StatusNoContent)
}

// DraftResult is the /api/recommendations/draft response. Recommendation is
// set when the draft was saved.
type DraftResult struct {
	City           string                 `json:"city"`
	Text           string                 `json:"text"`
	Recommendation *models.Recommendation `json:"recommendation,omitempty"`
}

// handleDraftRecommendation asks the advisor for a tip for ?city= or, by
// default, the most polluted city. ?save=true stores the draft.
func (s *Server) handleDraftRecommendation(w http.ResponseWriter, r *http.Request) {
	if s.drafter == nil {
		writeError(w, http.StatusServiceUnavailable, "recommendation drafting is not configured")
		return
	}

	summary, _, err := s.summarize(r.Context(), nil)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	target := summary.Worst
	if city := r.URL.Query().Get("city"); city != "" {
		target = nil
		for i := range summary.Aggregates {
			if summary.Aggregates[i].City == city {
				target = &summary.Aggregates[i]
				break
			}
		}
	}
	if target == nil {
		writeError(w, http.StatusNotFound, "no readings to draft from")
		return
	}

	text, err := s.drafter.Draft(r.Context(), *target)
	if err != nil {
		s.logger.Warn("draft recommendation", "city", target.City, "error", err)
		writeError(w, http.StatusBadGateway, "failed to draft recommendation")
		return
	}
	result := DraftResult{City: target.City, Text: htmlutil.CleanText(text)}

	if r.URL.Query().Get("save") == "true" {
		rec, err := s.store.CreateRecommendation(r.Context(), result.Text)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		metrics.RecommendationOps.WithLabelValues("draft").Inc()
		if isFormPost(r) {
			http.Redirect(w, r, crudRedirect, http.StatusSeeOther)
			return
		}
		result.Recommendation = rec
		writeJSON(w, http.StatusCreated, result)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

const crudRedirect = "/?component=data-crud"

func isFormPost(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded")
}

// Form handlers back the data-crud component. Blank text is ignored, the
// same as the JSON endpoints reject it.
func (s *Server) handleFormCreateRecommendation(w http.ResponseWriter, r *http.Request) {
	text := htmlutil.CleanText(r.FormValue("text"))
	if text != "" {
		if _, err := s.store.CreateRecommendation(r.Context(), text); err != nil {
			s.writeStoreError(w, err)
			return
		}
		metrics.RecommendationOps.WithLabelValues("create").Inc()
	}
	http.Redirect(w, r, crudRedirect, http.StatusSeeOther)
}

func (s *Server) handleFormUpdateRecommendation(w http.ResponseWriter, r *http.Request) {
	id, ok := recommendationID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid recommendation id")
		return
	}
	text := htmlutil.CleanText(r.FormValue("text"))
	if text != "" {
		if _, err := s.store.UpdateRecommendation(r.Context(), id, text); err != nil {
			s.writeStoreError(w, err)
			return
		}
		metrics.RecommendationOps.WithLabelValues("update").Inc()
	}
	http.Redirect(w, r, crudRedirect, http.StatusSeeOther)
}

func (s *Server) handleFormDeleteRecommendation(w http.ResponseWriter, r *http.Request) {
	id, ok := recommendationID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid recommendation id")
		return
	}
	if err := s.store.DeleteRecommendation(r.Context(), id); err != nil {
		s.writeStoreError(w, err)
		return
	}
	metrics.RecommendationOps.WithLabelValues("delete").Inc()
	http.Redirect(w, r, crudRedirect, http.StatusSeeOther)
}
