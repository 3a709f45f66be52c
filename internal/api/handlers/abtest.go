package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/sidkm/sift/internal/abtest"
	"github.com/sidkm/sift/pkg/logger"
)

// ABTestHandler handles A/B testing API endpoints
type ABTestHandler struct {
	manager *abtest.Manager
	logger  *logger.Logger
}

// NewABTestHandler creates a new A/B test handler
func NewABTestHandler(manager *abtest.Manager, log *logger.Logger) *ABTestHandler {
	return &ABTestHandler{manager: manager, logger: log}
}

// CreateTest creates a new A/B test
// POST /api/v1/abtests
func (h *ABTestHandler) CreateTest(w http.ResponseWriter, r *http.Request) {
	var params abtest.CreateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	test, err := h.manager.CreateTest(r.Context(), params)
	if err != nil {
		respondValidation(w, strings.Split(strings.TrimPrefix(err.Error(), "invalid test: "), "; "))
		return
	}

	respondJSON(w, http.StatusCreated, test)
}

// ListTests returns active and completed tests
// GET /api/v1/abtests
func (h *ABTestHandler) ListTests(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"active":    h.manager.ActiveTests(),
		"completed": h.manager.CompletedTests(),
	})
}

// GetTest returns one test's full status
// GET /api/v1/abtests/{name}
func (h *ABTestHandler) GetTest(w http.ResponseWriter, r *http.Request) {
	test, err := h.manager.TestStatus(mux.Vars(r)["name"])
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, test)
}

// AssignVariant returns the deterministic variant for a user
// GET /api/v1/abtests/{name}/assign?user_id=abc
func (h *ABTestHandler) AssignVariant(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	name := mux.Vars(r)["name"]
	variant, err := h.manager.AssignVariant(name, userID)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"test_name": name,
		"user_id":   userID,
		"variant":   variant,
	})
}

// RecordResultRequest is the result endpoint's body
type RecordResultRequest struct {
	VariantID string               `json:"variant_id"`
	Success   bool                 `json:"success"`
	Metrics   abtest.ResultMetrics `json:"metrics"`
}

// RecordResult records one outcome for a variant
// POST /api/v1/abtests/{name}/results
func (h *ABTestHandler) RecordResult(w http.ResponseWriter, r *http.Request) {
	var body RecordResultRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.VariantID == "" {
		respondError(w, http.StatusBadRequest, "variant_id is required")
		return
	}

	name := mux.Vars(r)["name"]
	if err := h.manager.RecordResult(r.Context(), name, body.VariantID, body.Metrics, body.Success); err != nil {
		respondError(w, http.StatusConflict, err.Error())
		return
	}

	test, err := h.manager.TestStatus(name)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"recorded": true,
		"status":   test.Status,
		"analysis": test.Analysis,
	})
}

// ConcludeTestRequest is the conclude endpoint's body
type ConcludeTestRequest struct {
	Reason string `json:"reason,omitempty"`
}

// ConcludeTest manually freezes a test
// POST /api/v1/abtests/{name}/conclude
func (h *ABTestHandler) ConcludeTest(w http.ResponseWriter, r *http.Request) {
	var body ConcludeTestRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	summary, err := h.manager.ConcludeTest(r.Context(), mux.Vars(r)["name"], body.Reason)
	if err != nil {
		respondError(w, http.StatusConflict, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// History returns recent test conclusions
// GET /api/v1/abtests/history?limit=20
func (h *ABTestHandler) History(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.manager.History(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load history")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"history": entries})
}
