package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"anonchat/internal/domain"
)

// Health returns basic health check
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
	})
}

// HealthCheckResult represents the result of a health check
type HealthCheckResult struct {
	Status    string         `json:"status"`
	LatencyMs int64          `json:"latency_ms,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// Ready reports whether the persistent store answers
func Ready(store domain.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		storeCheck := checkStore(ctx, store)

		response := map[string]any{
			"timestamp": time.Now().Format(time.RFC3339),
			"checks": map[string]HealthCheckResult{
				"store": storeCheck,
			},
		}

		w.Header().Set("Content-Type", "application/json")
		if storeCheck.Status == "up" {
			response["status"] = "ready"
			w.WriteHeader(http.StatusOK)
		} else {
			response["status"] = "not_ready"
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		json.NewEncoder(w).Encode(response)
	}
}

// checkStore pings the store when it supports it; stores without a ping are assumed up
func checkStore(ctx context.Context, store domain.Store) HealthCheckResult {
	metadata := map[string]any{"backend": fmt.Sprintf("%T", store)}

	pinger, ok := store.(domain.Pinger)
	if !ok {
		return HealthCheckResult{Status: "up", Metadata: metadata}
	}

	start := time.Now()
	err := pinger.Ping(ctx)
	latency := time.Since(start)

	if err != nil {
		return HealthCheckResult{
			Status:    "down",
			LatencyMs: latency.Milliseconds(),
			Metadata:  metadata,
			Error:     err.Error(),
		}
	}

	return HealthCheckResult{
		Status:    "up",
		LatencyMs: latency.Milliseconds(),
		Metadata:  metadata,
	}
}
