package httpadapter

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/kirillkom/studymate/internal/config"
	"github.com/kirillkom/studymate/internal/core/domain"
	"github.com/kirillkom/studymate/internal/core/ports"
	"github.com/kirillkom/studymate/internal/core/validation"
	"github.com/kirillkom/studymate/internal/observability/metrics"
)

// BreakerStates reports circuit breaker state per backend operation.
type BreakerStates interface {
	States() map[string]string
}

type Router struct {
	cfg        config.Config
	dispatcher ports.ActionDispatcher
	metrics    *metrics.HTTPServerMetrics
	breakers   BreakerStates
}

func NewRouter(
	cfg config.Config,
	dispatcher ports.ActionDispatcher,
	httpMetrics *metrics.HTTPServerMetrics,
	breakers BreakerStates,
) *Router {
	return &Router{
		cfg:        cfg,
		dispatcher: dispatcher,
		metrics:    httpMetrics,
		breakers:   breakers,
	}
}

func (rt *Router) Handler() http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not found.")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed.")
	})

	r.HandleFunc("/healthz", rt.healthz).Methods(http.MethodGet)
	if rt.metrics != nil {
		r.Handle("/metrics", rt.metrics.Handler()).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(rt.authMiddleware)
	api.HandleFunc("/operations", rt.listOperations).Methods(http.MethodGet)
	api.HandleFunc("/actions/{operation}", rt.handleAction).Methods(http.MethodPost)
	api.HandleFunc("/exports/{kind}", rt.handleExport).Methods(http.MethodPost)

	var h http.Handler = recoveryMiddleware(r)
	h = backpressureMiddleware(h, rt.cfg.APIMaxInFlight, rt.cfg.APIBackpressureWait, rt.recordRejected)
	h = rateLimitMiddleware(h, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst, rt.recordRejected)
	if rt.metrics != nil {
		h = rt.metrics.Middleware("api", h)
	}
	h = accessLogMiddleware(h)
	h = requestIDMiddleware(h)
	return cors.New(cors.Options{
		AllowedOrigins: rt.cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader, "Retry-After", "Content-Disposition"},
		MaxAge:         600,
	}).Handler(h)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	resp := map[string]any{"status": "ok"}
	if rt.breakers != nil {
		resp["breakers"] = rt.breakers.States()
	}
	writeJSON(w, http.StatusOK, resp)
}

type operationInfo struct {
	Name     string   `json:"name"`
	Fields   []string `json:"fields"`
	Document string   `json:"document"`
}

func (rt *Router) listOperations(w http.ResponseWriter, _ *http.Request) {
	ops := make([]operationInfo, 0, len(domain.Operations()))
	for _, kind := range domain.Operations() {
		ops = append(ops, operationInfo{
			Name:     string(kind),
			Fields:   validation.Fields(kind),
			Document: documentNeedName(kind.DocumentNeed()),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"operations": ops})
}

func (rt *Router) handleAction(w http.ResponseWriter, r *http.Request) {
	raw := mux.Vars(r)["operation"]
	kind, ok := domain.ParseOperationKind(raw)
	if !ok {
		kind = domain.OperationKind(raw)
	}

	if rt.cfg.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, rt.cfg.MaxUploadBytes)
	}
	fields, file, err := parseActionRequest(r)
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), requestErrorMessage(err))
		return
	}
	defer cleanupMultipart(r)

	result := rt.dispatcher.Handle(r.Context(), kind, fields, file)
	writeJSON(w, statusForResult(result), result)
}

func (rt *Router) recordRejected(reason string) {
	if rt.metrics != nil {
		rt.metrics.RecordRejected(reason)
	}
}

func documentNeedName(need domain.DocumentNeed) string {
	switch need {
	case domain.DocumentDataURI:
		return "file"
	case domain.DocumentText:
		return "text"
	default:
		return "none"
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"status":  domain.StatusError,
		"message": message,
	})
}
