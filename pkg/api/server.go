package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/billfold/billfold/pkg/billing"
	"github.com/billfold/billfold/pkg/customers"
	"github.com/billfold/billfold/pkg/httputil"
	"github.com/billfold/billfold/pkg/observability"
	"github.com/billfold/billfold/pkg/plans"
)

// Config holds server-level options
type Config struct {
	CORSAllowedOrigins []string
	Metrics            *observability.Metrics
	TracingEnabled     bool
}

// Server is the API http.Handler: a mux router wrapped in the middleware
// chain and, optionally, metrics and tracing instrumentation.
type Server struct {
	router  *mux.Router
	handler http.Handler
}

// NewServer creates the API server and registers all routes
func NewServer(billingSvc billing.Service, planSvc plans.Service, customerSvc customers.Service, cfg Config) *Server {
	router := mux.NewRouter()

	apiRouter := router.PathPrefix("/api/v1").Subrouter()
	NewBillingHandlers(billingSvc).RegisterRoutes(apiRouter)
	NewPlanHandlers(planSvc).RegisterRoutes(apiRouter)
	NewCustomerHandlers(customerSvc).RegisterRoutes(apiRouter)

	if cfg.Metrics != nil {
		apiRouter.Use(metricsMiddleware(cfg.Metrics))
	}

	origins := cfg.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	handler := httputil.Chain(
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware,
		httputil.RecoveryMiddleware,
		httputil.CORSMiddleware(origins),
		httputil.ContentTypeMiddleware,
	)(router)

	if cfg.TracingEnabled {
		handler = otelhttp.NewHandler(handler, "billfold-api")
	}

	return &Server{router: router, handler: handler}
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// metricsMiddleware records request counts and latency per route template
func metricsMiddleware(m *observability.Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r)

			path := r.URL.Path
			if route := mux.CurrentRoute(r); route != nil {
				if tmpl, err := route.GetPathTemplate(); err == nil {
					path = tmpl
				}
			}

			m.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rw.status)).Inc()
			m.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
