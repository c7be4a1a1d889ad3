package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wonny/loanqa/internal/api/handlers"
	"github.com/wonny/loanqa/pkg/logger"
)

// Handlers groups the endpoint handlers. Scheduler is nil unless the
// scheduler runs in the same process.
type Handlers struct {
	Health    *handlers.HealthHandler
	Quality   *handlers.QualityHandler
	Scheduler *handlers.SchedulerHandler
}

// NewRouter creates and configures the HTTP router.
// /metrics is mounted only when gatherer is non-nil.
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(h Handlers, gatherer prometheus.Gatherer, log *logger.Logger) *mux.Router {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", h.Health.Check).Methods("GET")

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()

	// Quality endpoints
	api.HandleFunc("/quality/latest", h.Quality.GetLatest).Methods("GET")
	api.HandleFunc("/quality/runs", h.Quality.ListRuns).Methods("GET")
	api.HandleFunc("/quality/runs/{id}", h.Quality.GetRun).Methods("GET")

	// Scheduler endpoints
	if h.Scheduler != nil {
		api.HandleFunc("/scheduler/jobs", h.Scheduler.ListJobs).Methods("GET")
		api.HandleFunc("/scheduler/jobs/{name}/history", h.Scheduler.GetHistory).Methods("GET")
	}

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// Routes lists "METHOD /path" for every endpoint of r, in registration order
func Routes(r *mux.Router) []string {
	var routes []string
	_ = r.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		path, err := route.GetPathTemplate()
		if err != nil {
			return nil
		}
		methods, err := route.GetMethods()
		if err != nil {
			return nil // subrouter prefix
		}
		for _, m := range methods {
			routes = append(routes, m+" "+path)
		}
		return nil
	})
	return routes
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
