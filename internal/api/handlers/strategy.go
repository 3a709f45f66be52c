package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/sidkm/sift/internal/contracts"
	"github.com/sidkm/sift/internal/strategyconfig"
	"github.com/sidkm/sift/pkg/logger"
)

// StrategyHandler exposes the loaded variant catalogs
type StrategyHandler struct {
	store  *strategyconfig.Store
	logger *logger.Logger
}

// NewStrategyHandler creates a new strategy handler
func NewStrategyHandler(store *strategyconfig.Store, log *logger.Logger) *StrategyHandler {
	return &StrategyHandler{store: store, logger: log}
}

// ListStrategies returns every strategy with its available versions
// GET /api/v1/strategies
func (h *StrategyHandler) ListStrategies(w http.ResponseWriter, r *http.Request) {
	out := make(map[string][]string, len(contracts.AllStrategies))
	for _, strategy := range contracts.AllStrategies {
		out[string(strategy)] = h.store.Versions(strategy)
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"strategies": out})
}

// GetCatalog returns one strategy's catalog
// GET /api/v1/strategies/{strategy}?version=v1
func (h *StrategyHandler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	strategy, err := contracts.ParseStrategy(mux.Vars(r)["strategy"])
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	catalog, err := h.store.Catalog(strategy, r.URL.Query().Get("version"))
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	hash, err := strategyconfig.Hash(catalog)
	if err != nil {
		h.logger.WithError(err).Error("Failed to hash catalog")
		respondError(w, http.StatusInternalServerError, "Failed to hash catalog")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"strategy": strategy,
		"hash":     hash,
		"catalog":  catalog,
	})
}
