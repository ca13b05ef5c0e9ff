package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/kr-equities/aegis-quant/internal/api/handlers"
	"github.com/kr-equities/aegis-quant/pkg/logger"
)

// Handlers bundles the domain handler groups NewRouter wires into routes —
// one struct per [MODULE] of the HTTP surface.
type Handlers struct {
	Stocks   *handlers.StocksHandler
	Triggers *handlers.TriggersHandler
	Analysis *handlers.AnalysisHandler
	Reports  *handlers.ReportsHandler
	Jobs     *handlers.JobsHandler
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(h Handlers, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	r.HandleFunc("/stocks", h.Stocks.List).Methods("GET")
	r.HandleFunc("/stocks/{ticker}", h.Stocks.Get).Methods("GET")
	r.HandleFunc("/stocks/{ticker}/price", h.Stocks.Price).Methods("GET")
	r.HandleFunc("/stocks/{ticker}/current", h.Stocks.Current).Methods("GET")
	r.HandleFunc("/stocks/{ticker}/technical", h.Stocks.Technical).Methods("GET")

	r.HandleFunc("/triggers", h.Triggers.List).Methods("GET")
	r.HandleFunc("/triggers/latest", h.Triggers.Latest).Methods("GET")
	r.HandleFunc("/triggers/stats", h.Triggers.Stats).Methods("GET")
	r.HandleFunc("/triggers/types/{trigger_type}", h.Triggers.ByType).Methods("GET")
	r.HandleFunc("/triggers/run/{session}", h.Triggers.Run).Methods("POST")
	r.HandleFunc("/triggers/{ticker}/history", h.Triggers.History).Methods("GET")

	r.HandleFunc("/analysis/popular", h.Analysis.Popular).Methods("GET")
	r.HandleFunc("/analysis/batch", h.Analysis.Batch).Methods("POST")
	r.HandleFunc("/analysis/{ticker}", h.Analysis.Get).Methods("GET")
	r.HandleFunc("/analysis/{ticker}/refresh", h.Analysis.Refresh).Methods("POST")
	r.HandleFunc("/analysis/{ticker}/cache-status", h.Analysis.CacheStatus).Methods("GET")
	r.HandleFunc("/analysis/{ticker}/comparison", h.Analysis.Comparison).Methods("GET")

	r.HandleFunc("/reports/latest", h.Reports.Latest).Methods("GET")
	r.HandleFunc("/reports/history", h.Reports.History).Methods("GET")
	r.HandleFunc("/reports/stats", h.Reports.Stats).Methods("GET")
	r.HandleFunc("/reports/{report_type}", h.Reports.Get).Methods("GET")
	r.HandleFunc("/reports/{report_type}/generate", h.Reports.Generate).Methods("POST")

	r.HandleFunc("/internal/jobs/stats", h.Jobs.Stats).Methods("GET")

	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "aegis-market-intelligence-api",
	})
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
					json.NewEncoder(w).Encode(map[string]interface{}{
						"success": false,
						"detail":  "internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
