package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/kirillkom/hybrid-retrieval/internal/config"
	"github.com/kirillkom/hybrid-retrieval/internal/core/ports"
	"github.com/kirillkom/hybrid-retrieval/internal/observability/metrics"
)

const serviceName = "api"

// Services groups the inbound use cases the router dispatches to. Jobs,
// Extractor, Archive and Metrics may be nil; the dependent features are then
// disabled.
type Services struct {
	Ingestor    ports.DocumentIngestor
	Searcher    ports.HybridSearcher
	Evaluator   ports.RetrievalEvaluator
	Reports     ports.EvaluationReader
	Collections ports.CollectionManager
	Jobs        ports.IngestJobPublisher
	Extractor   ports.TextExtractor
	Archive     ports.UploadArchive
	Metrics     *metrics.HTTPServerMetrics
}

type Router struct {
	cfg config.Config
	svc Services
}

func NewRouter(cfg config.Config, svc Services) *Router {
	return &Router{cfg: cfg, svc: svc}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	if rt.svc.Metrics != nil {
		mux.Handle("GET /metrics", rt.svc.Metrics.Handler())
	}
	mux.HandleFunc("POST /v1/collections/{collection}/documents", rt.ingestDocuments)
	mux.HandleFunc("POST /v1/collections/{collection}/files", rt.uploadFile)
	mux.HandleFunc("POST /v1/collections/{collection}/search", rt.search)
	mux.HandleFunc("POST /v1/collections/{collection}/evaluate", rt.evaluate)
	mux.HandleFunc("DELETE /v1/collections/{collection}", rt.resetCollection)
	mux.HandleFunc("GET /v1/evaluations/{id}", rt.getEvaluation)

	var handler http.Handler = mux
	handler = authMiddleware(handler, rt.cfg.APIKey)
	handler = backpressureMiddleware(handler, rt.cfg.APIBackpressureMaxInFlight, rt.cfg.APIBackpressureWait)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	if rt.svc.Metrics != nil {
		handler = rt.svc.Metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request_failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": message})
}
