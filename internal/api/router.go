package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/sidkm/sift/internal/api/handlers"
	"github.com/sidkm/sift/pkg/logger"
)

// NewRouter creates and configures the HTTP router
func NewRouter(recommendHandler *handlers.RecommendHandler, abtestHandler *handlers.ABTestHandler, strategyHandler *handlers.StrategyHandler, healthHandler *handlers.HealthHandler, streamHandler *handlers.StreamHandler, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health checks
	r.HandleFunc("/health", healthHandler.Liveness).Methods("GET")
	r.HandleFunc("/health/deep", healthHandler.Readiness).Methods("GET")

	// API v1
	api := r.PathPrefix("/api/v1").Subrouter()

	// Scoring endpoints
	api.HandleFunc("/recommendations/{strategy}", recommendHandler.GetRecommendations).Methods("GET")
	api.HandleFunc("/recommendations/{strategy}/validate", recommendHandler.ValidateCombination).Methods("POST")
	api.HandleFunc("/recommendations/{strategy}/scans", recommendHandler.RecentScans).Methods("GET")

	// Strategy catalog endpoints
	api.HandleFunc("/strategies", strategyHandler.ListStrategies).Methods("GET")
	api.HandleFunc("/strategies/{strategy}", strategyHandler.GetCatalog).Methods("GET")

	// A/B testing endpoints
	api.HandleFunc("/abtests", abtestHandler.CreateTest).Methods("POST")
	api.HandleFunc("/abtests", abtestHandler.ListTests).Methods("GET")
	api.HandleFunc("/abtests/history", abtestHandler.History).Methods("GET")
	api.HandleFunc("/abtests/{name}", abtestHandler.GetTest).Methods("GET")
	api.HandleFunc("/abtests/{name}/assign", abtestHandler.AssignVariant).Methods("GET")
	api.HandleFunc("/abtests/{name}/results", abtestHandler.RecordResult).Methods("POST")
	api.HandleFunc("/abtests/{name}/conclude", abtestHandler.ConcludeTest).Methods("POST")

	// Live scan stream
	if streamHandler != nil {
		r.HandleFunc("/ws/scans", streamHandler.Serve)
	}

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
