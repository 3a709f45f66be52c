package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/sidkm/sift/internal/contracts"
	"github.com/sidkm/sift/internal/recommend"
	"github.com/sidkm/sift/internal/strategyconfig"
	"github.com/sidkm/sift/pkg/logger"
)

// RecommendHandler handles scoring API endpoints
type RecommendHandler struct {
	service *recommend.Service
	logger  *logger.Logger
}

// NewRecommendHandler creates a new recommendation handler
func NewRecommendHandler(service *recommend.Service, log *logger.Logger) *RecommendHandler {
	return &RecommendHandler{service: service, logger: log}
}

// GetRecommendations runs the scoring pipeline for one strategy
// GET /api/v1/recommendations/{strategy}?version=&limit=&min_score=&combination={"fundamental":"v1"}
func (h *RecommendHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	strategy, err := contracts.ParseStrategy(mux.Vars(r)["strategy"])
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	req := recommend.Request{
		Strategy: strategy,
		Version:  r.URL.Query().Get("version"),
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			respondError(w, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		req.Limit = limit
	}

	if raw := r.URL.Query().Get("min_score"); raw != "" {
		minScore, err := strconv.ParseFloat(raw, 64)
		if err != nil || minScore < 0 || minScore > 100 {
			respondError(w, http.StatusBadRequest, "Invalid min_score parameter (expected 0-100)")
			return
		}
		req.MinScore = &minScore
	}

	if raw := r.URL.Query().Get("combination"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Combination); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid combination parameter (expected JSON object)")
			return
		}
	}

	set, err := h.service.GetRecommendations(r.Context(), req)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, set)
}

// ValidateCombinationRequest is the validate endpoint's body
type ValidateCombinationRequest struct {
	Version     string                `json:"version,omitempty"`
	Combination contracts.Combination `json:"combination"`
}

// ValidateCombination checks a combination without running any fetches
// POST /api/v1/recommendations/{strategy}/validate
func (h *RecommendHandler) ValidateCombination(w http.ResponseWriter, r *http.Request) {
	strategy, err := contracts.ParseStrategy(mux.Vars(r)["strategy"])
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var body ValidateCombinationRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	preview, err := h.service.ValidateCombination(strategy, body.Version, body.Combination)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	status := http.StatusOK
	if !preview.Valid {
		status = http.StatusBadRequest
	}
	respondJSON(w, status, preview)
}

// RecentScans returns persisted scan snapshots
// GET /api/v1/recommendations/{strategy}/scans?limit=10
func (h *RecommendHandler) RecentScans(w http.ResponseWriter, r *http.Request) {
	strategy, err := contracts.ParseStrategy(mux.Vars(r)["strategy"])
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	snaps, err := h.service.RecentScans(r.Context(), strategy, limit)
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"strategy":  strategy,
		"snapshots": snaps,
	})
}

func (h *RecommendHandler) respondServiceError(w http.ResponseWriter, err error) {
	var verrs strategyconfig.ValidationErrors
	if errors.As(err, &verrs) {
		respondValidation(w, verrs.Messages())
		return
	}

	var cfgErr *strategyconfig.ConfigError
	if errors.As(err, &cfgErr) {
		respondError(w, http.StatusNotFound, cfgErr.Error())
		return
	}

	h.logger.WithError(err).Error("Scoring request failed")
	respondError(w, http.StatusInternalServerError, "Failed to compute recommendations")
}
