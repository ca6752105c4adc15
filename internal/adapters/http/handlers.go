package httpadapter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/hybrid-retrieval/internal/core/domain"
	"github.com/kirillkom/hybrid-retrieval/internal/core/ports"
)

const defaultMaxUploadBytes = 32 << 20

var archiveKeyReplacer = strings.NewReplacer("/", "_", "\\", "_")

type ingestRequest struct {
	Documents []domain.Document `json:"documents"`
	Strategy  string            `json:"strategy"`
	MaxChars  int               `json:"max_chars"`
	Overlap   *int              `json:"overlap"`
	MinChars  *int              `json:"min_chars"`
}

type searchRequest struct {
	Query string   `json:"query"`
	TopK  int      `json:"topk"`
	Alpha *float64 `json:"alpha"`
	Mode  string   `json:"mode"`
}

type evaluateRequest struct {
	Samples     []domain.EvaluationSample `json:"samples"`
	TopK        int                       `json:"topk"`
	Concurrency int                       `json:"concurrency"`
}

type jobAcceptedResponse struct {
	JobID      string `json:"job_id"`
	Collection string `json:"collection"`
	Documents  int    `json:"documents"`
	Status     string `json:"status"`
}

func (rt *Router) ingestDocuments(w http.ResponseWriter, r *http.Request) {
	collection := r.PathValue("collection")

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid json")
		return
	}
	if len(req.Documents) == 0 {
		writeBadRequest(w, "documents are required")
		return
	}
	strategy, err := parseStrategy(req.Strategy)
	if err != nil {
		writeError(w, r, err)
		return
	}

	rt.dispatchIngest(w, r, ports.IngestRequest{
		Collection: collection,
		Documents:  req.Documents,
		Strategy:   strategy,
		MaxChars:   req.MaxChars,
		Overlap:    req.Overlap,
		MinChars:   req.MinChars,
	})
}

func (rt *Router) uploadFile(w http.ResponseWriter, r *http.Request) {
	if rt.svc.Extractor == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "file extraction is not configured"})
		return
	}
	collection := r.PathValue("collection")

	maxBytes := rt.cfg.APIMaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxUploadBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		if isBodyTooLarge(err) {
			writeError(w, r, err)
			return
		}
		writeBadRequest(w, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		if isBodyTooLarge(err) {
			writeError(w, r, err)
			return
		}
		writeBadRequest(w, fmt.Sprintf("read upload: %v", err))
		return
	}
	mimeType := fileHeader.Header.Get("Content-Type")
	text, err := rt.svc.Extractor.Extract(r.Context(), fileHeader.Filename, mimeType, data)
	if err != nil {
		writeError(w, r, err)
		return
	}

	docID := strings.TrimSpace(r.FormValue("id"))
	if docID == "" {
		docID = fileHeader.Filename
	}
	rt.archiveUpload(r, collection, docID, data)
	strategy, err := parseStrategy(r.FormValue("strategy"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	rt.dispatchIngest(w, r, ports.IngestRequest{
		Collection: collection,
		Documents: []domain.Document{{
			ID:   docID,
			Text: text,
			Meta: map[string]any{"source": fileHeader.Filename, "mime_type": mimeType},
		}},
		Strategy: strategy,
	})
}

// archiveUpload keeps the raw file; failures only warn since the extracted
// text is what gets indexed.
func (rt *Router) archiveUpload(r *http.Request, collection, docID string, data []byte) {
	if rt.svc.Archive == nil {
		return
	}
	key := collection + "/" + archiveKeyReplacer.Replace(docID)
	if err := rt.svc.Archive.Save(r.Context(), key, bytes.NewReader(data)); err != nil {
		slog.Warn("upload_archive_failed",
			"request_id", requestIDFromContext(r.Context()),
			"key", key,
			"error", err,
		)
	}
}

// dispatchIngest runs the ingest inline, or hands it to the worker queue when
// the caller asked for ?async=true.
func (rt *Router) dispatchIngest(w http.ResponseWriter, r *http.Request, req ports.IngestRequest) {
	async, _ := strconv.ParseBool(r.URL.Query().Get("async"))
	if async {
		if rt.svc.Jobs == nil {
			writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "async ingest is not configured"})
			return
		}
		job := domain.IngestJob{
			ID:         uuid.NewString(),
			Collection: req.Collection,
			Documents:  req.Documents,
			Strategy:   req.Strategy,
			MaxChars:   req.MaxChars,
			Overlap:    req.Overlap,
			MinChars:   req.MinChars,
			EnqueuedAt: time.Now().UTC(),
		}
		if err := rt.svc.Jobs.PublishIngestJob(r.Context(), job); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusAccepted, jobAcceptedResponse{
			JobID:      job.ID,
			Collection: job.Collection,
			Documents:  len(job.Documents),
			Status:     "queued",
		})
		return
	}

	report, err := rt.svc.Ingestor.Ingest(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rt.svc.Metrics != nil {
		rt.svc.Metrics.RecordIngest(serviceName, report)
	}
	writeJSON(w, http.StatusOK, report)
}

func (rt *Router) search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid json")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeBadRequest(w, "query is required")
		return
	}

	start := time.Now()
	result, err := rt.svc.Searcher.Search(r.Context(), ports.SearchRequest{
		Collection: r.PathValue("collection"),
		Query:      req.Query,
		TopK:       req.TopK,
		Alpha:      req.Alpha,
		Mode:       domain.RetrievalMode(req.Mode),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rt.svc.Metrics != nil {
		rt.svc.Metrics.RecordSearch(serviceName, string(result.Mode), len(result.Hits), time.Since(start))
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) evaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid json")
		return
	}
	if len(req.Samples) == 0 {
		writeBadRequest(w, "samples are required")
		return
	}

	report, err := rt.svc.Evaluator.Evaluate(r.Context(), ports.EvaluationRequest{
		Collection:  r.PathValue("collection"),
		Samples:     req.Samples,
		TopK:        req.TopK,
		Concurrency: req.Concurrency,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rt.svc.Metrics != nil {
		rt.svc.Metrics.RecordEvaluation(serviceName, report)
	}
	writeJSON(w, http.StatusOK, report)
}

func (rt *Router) resetCollection(w http.ResponseWriter, r *http.Request) {
	collection := r.PathValue("collection")
	if err := rt.svc.Collections.Reset(r.Context(), collection); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"collection": collection, "status": "reset"})
}

func (rt *Router) getEvaluation(w http.ResponseWriter, r *http.Request) {
	report, err := rt.svc.Reports.GetReport(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func parseStrategy(raw string) (domain.ChunkStrategy, error) {
	switch strategy := domain.ChunkStrategy(strings.ToLower(strings.TrimSpace(raw))); strategy {
	case "":
		return "", nil
	case domain.ChunkBySentence, domain.ChunkByParagraph:
		return strategy, nil
	default:
		return "", domain.WrapError(domain.ErrInvalidInput, "parse strategy", errors.New("strategy must be sentence or paragraph"))
	}
}
