package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Config controls the base middleware chain every service router mounts.
type Config struct {
	Logger      *slog.Logger
	EnableDocs  bool
	SwaggerSpec string // path to the served swagger.json, e.g. "/swagger/doc.json"
}

// New builds a mux.Router with the shared middleware chain (request ID,
// access log, panic recovery, metrics) and a health endpoint already
// mounted. Callers add their own routes via router.Handle/HandleFunc or a
// router.PathPrefix(...).Subrouter().
func New(cfg Config) *mux.Router {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := mux.NewRouter()
	r.Use(RequestID)
	r.Use(AccessLog(logger))
	r.Use(Recover(logger))
	r.Use(SecurityHeaders)
	r.Use(Metrics(func(req *http.Request) string {
		route := mux.CurrentRoute(req)
		if route == nil {
			return "unmatched"
		}
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
		return "unmatched"
	}))

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	if cfg.EnableDocs {
		spec := cfg.SwaggerSpec
		if spec == "" {
			spec = "/swagger/doc.json"
		}
		r.PathPrefix("/swagger/").Handler(httpSwagger.Handler(httpSwagger.URL(spec)))
	}

	return r
}
