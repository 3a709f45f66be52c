package handlers

import (
	"encoding/json"
	"net/http"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

func respondValidation(w http.ResponseWriter, errors []string) {
	respondJSON(w, http.StatusBadRequest, map[string]interface{}{
		"valid":  false,
		"errors": errors,
	})
}
