package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/evcraddock/reelreviews/internal/errs"
	"github.com/evcraddock/reelreviews/internal/review"
)

const maxBodyBytes = 64 << 10

// apiError writes a JSON error response.
func apiError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	resp := map[string]string{"error": msg}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, `{"error":"encode failed"}`, http.StatusInternalServerError)
	}
}

// apiJSON writes a JSON response with the given status code.
func apiJSON(w http.ResponseWriter, data any, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, `{"error":"encode failed"}`, http.StatusInternalServerError)
	}
}

// handleListReviews returns an item's reviews, newest first.
func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")

	reviews, err := s.reviews.ListByItemID(itemID)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "listing reviews", "item_id", itemID, "error", err)
		apiError(w, "listing reviews failed", http.StatusInternalServerError)
		return
	}
	if reviews == nil {
		reviews = []*review.Review{}
	}

	apiJSON(w, reviews, http.StatusOK)
}

// handleAddReview stores a review. The item id comes from the path; the
// server assigns id and created_at.
func (s *Server) handleAddReview(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")

	var d review.Draft
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&d); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if d.ItemID != "" && strings.TrimSpace(d.ItemID) != itemID {
		apiError(w, "item_id does not match path", http.StatusBadRequest)
		return
	}
	d.ItemID = itemID

	rev, err := s.reviews.Add(d)
	if errors.Is(err, errs.ErrValidation) {
		apiError(w, strings.TrimPrefix(err.Error(), errs.ErrValidation.Error()+": "), http.StatusUnprocessableEntity)
		return
	}
	if err != nil {
		s.logger.ErrorContext(r.Context(), "adding review", "item_id", itemID, "error", err)
		apiError(w, "storing review failed", http.StatusInternalServerError)
		return
	}

	s.logger.InfoContext(r.Context(), "review added", "item_id", itemID, "review_id", rev.ID)
	apiJSON(w, rev, http.StatusCreated)
}
