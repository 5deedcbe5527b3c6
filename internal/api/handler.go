// Package api exposes the outreach composer over HTTP: chunk collection
// reads and full-replace writes, deterministic message composition, the
// LLM-backed boilerplate and rewrite transforms, job-description PDF
// extraction, and the transform history archive.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kalambet/outreach/internal/chunk"
	"github.com/kalambet/outreach/internal/compose"
	"github.com/kalambet/outreach/internal/history"
	"github.com/kalambet/outreach/internal/jobdesc"
	"github.com/kalambet/outreach/internal/ollama"
	"github.com/kalambet/outreach/internal/render"
	"github.com/kalambet/outreach/internal/transform"
)

const (
	maxRequestBodySize = 1 << 20  // 1MB
	maxUploadBodySize  = 10 << 20 // 10MB, PDF uploads
)

// Deps holds everything the HTTP surface needs. History may be nil, in
// which case transform runs are simply not archived.
type Deps struct {
	Repo     *chunk.Repository
	Composer *compose.Composer
	Gateway  *transform.Gateway
	Ollama   *ollama.Client
	History  *history.Store
	Model    string
	Port     int
}

// NewHandler returns the outreach REST API.
func NewHandler(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)
	r.Get("/status", handleStatus(d))
	r.Get("/api/chunks", handleListChunks(d))
	r.Post("/api/chunks", handleReplaceChunks(d))
	r.Post("/compose", handleCompose(d))
	r.Post("/generate-boilerplate", handleBoilerplate(d))
	r.Post("/rewrite", handleRewrite(d))
	r.Post("/extract-job", handleExtractJob(d))
	r.Get("/history", handleHistoryList(d))
	r.Get("/history/{id}", handleHistoryGet(d))
	r.Delete("/history/{id}", handleHistoryDelete(d))

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// handleStatus reports connectivity to the generation service. An
// unreachable upstream is a normal answer, not an error: the display layer
// polls this endpoint and renders the result either way.
func handleStatus(d Deps) http.HandlerFunc {
	type ollamaStatus struct {
		Reachable      bool     `json:"reachable"`
		Model          string   `json:"model"`
		ModelAvailable bool     `json:"modelAvailable"`
		Models         []string `json:"models,omitempty"`
	}
	type statusResponse struct {
		Port   int          `json:"port"`
		Ollama ollamaStatus `json:"ollama"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		st := ollamaStatus{Model: d.Model}
		if d.Ollama.IsRunning(r.Context()) {
			st.Reachable = true
			models, err := d.Ollama.ListModels(r.Context())
			if err != nil {
				slog.Warn("listing models failed", "error", err)
			} else {
				st.Models = models
				st.ModelAvailable = ollama.ModelAvailable(d.Model, models)
			}
		}

		writeJSON(w, http.StatusOK, statusResponse{Port: d.Port, Ollama: st})
	}
}

func handleListChunks(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chunks := d.Repo.All()
		if chunks == nil {
			chunks = []chunk.Chunk{}
		}
		writeJSON(w, http.StatusOK, chunks)
	}
}

// handleReplaceChunks is a wholesale write of the chunk collection: the
// body must be the complete array, and the last full replace wins.
func handleReplaceChunks(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var chunks []chunk.Chunk
		if err := json.NewDecoder(r.Body).Decode(&chunks); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "expected an array of chunks: %v", err)
			return
		}

		if err := d.Repo.ReplaceAll(chunks); err != nil {
			if errors.Is(err, chunk.ErrConflict) {
				httpError(w, http.StatusConflict, "conflict_error", "duplicate chunk id: %v", err)
				return
			}
			httpError(w, http.StatusInternalServerError, "storage_error", "saving chunks: %v", err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

type composeRequest struct {
	compose.FormSnapshot
	Search   string `json:"search"`
	Category string `json:"category"`
}

func handleCompose(d Deps) http.HandlerFunc {
	type composeResponse struct {
		Text     string `json:"text"`
		HTML     string `json:"html"`
		Markdown string `json:"markdown"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req composeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		category := req.Category
		if category == "" {
			category = chunk.AllCategories
		}
		var chunks []chunk.Chunk
		for c := range d.Repo.Query(req.Search, category) {
			chunks = append(chunks, c)
		}

		text := d.Composer.Compose(req.FormSnapshot, chunks)
		writeJSON(w, http.StatusOK, composeResponse{
			Text:     text,
			HTML:     render.Render(text),
			Markdown: render.Markdown(text),
		})
	}
}

func handleBoilerplate(d Deps) http.HandlerFunc {
	type boilerplateRequest struct {
		JobDescription string `json:"jobDescription"`
	}
	type boilerplateResponse struct {
		Boilerplate string `json:"boilerplate"`
		Fallback    bool   `json:"fallback"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req boilerplateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.JobDescription == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "jobDescription is required")
			return
		}

		// Upstream failure degrades to the deterministic fallback, so this
		// endpoint always answers 200 with usable text.
		text, fallback := d.Gateway.Boilerplate(r.Context(), req.JobDescription)

		archive(d, "boilerplate", req.JobDescription, text, fallback)
		writeJSON(w, http.StatusOK, boilerplateResponse{Boilerplate: text, Fallback: fallback})
	}
}

func handleRewrite(d Deps) http.HandlerFunc {
	type rewriteRequest struct {
		Prompt string `json:"prompt"`
	}
	type rewriteResponse struct {
		Rewritten string `json:"rewritten"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req rewriteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Prompt == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "prompt is required")
			return
		}

		rewritten, err := d.Gateway.Rewrite(r.Context(), req.Prompt)
		if err != nil {
			httpError(w, http.StatusBadGateway, "api_error", "rewrite failed: %v", err)
			return
		}

		archive(d, "rewrite", req.Prompt, rewritten, false)
		writeJSON(w, http.StatusOK, rewriteResponse{Rewritten: rewritten})
	}
}

func handleExtractJob(d Deps) http.HandlerFunc {
	type extractResponse struct {
		Text string `json:"text"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBodySize)
		defer r.Body.Close()

		data, err := io.ReadAll(r.Body)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "reading upload: %v", err)
			return
		}

		text, err := jobdesc.ExtractText(data)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "extracting text: %v", err)
			return
		}

		writeJSON(w, http.StatusOK, extractResponse{Text: text})
	}
}

func handleHistoryList(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.History == nil {
			writeJSON(w, http.StatusOK, []history.Record{})
			return
		}

		limit := parseIntParam(r, "limit", 20)
		offset := parseIntParam(r, "offset", 0)

		records, err := d.History.ListRecent(limit, offset)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "storage_error", "listing history: %v", err)
			return
		}
		if records == nil {
			records = []history.Record{}
		}
		writeJSON(w, http.StatusOK, records)
	}
}

func handleHistoryGet(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.History == nil {
			httpError(w, http.StatusNotFound, "not_found_error", "history is not enabled")
			return
		}

		id := chi.URLParam(r, "id")
		rec, err := d.History.Get(id)
		if err != nil {
			if errors.Is(err, history.ErrNotFound) {
				httpError(w, http.StatusNotFound, "not_found_error", "no history record %s", id)
				return
			}
			httpError(w, http.StatusInternalServerError, "storage_error", "loading history record: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func handleHistoryDelete(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.History == nil {
			httpError(w, http.StatusNotFound, "not_found_error", "history is not enabled")
			return
		}

		id := chi.URLParam(r, "id")
		if err := d.History.Delete(id); err != nil {
			if errors.Is(err, history.ErrNotFound) {
				httpError(w, http.StatusNotFound, "not_found_error", "no history record %s", id)
				return
			}
			httpError(w, http.StatusInternalServerError, "storage_error", "deleting history record: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

// archive saves a transform run to the history store. Archiving is best
// effort; failures are logged and never surface to the client.
func archive(d Deps, kind, input, output string, fallback bool) {
	if d.History == nil {
		return
	}
	rec := history.Record{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		Kind:      kind,
		Input:     input,
		Output:    output,
		Model:     d.Model,
		Fallback:  fallback,
	}
	if err := d.History.Save(rec); err != nil {
		slog.Warn("archiving transform run failed", "kind", kind, "error", err)
	}
}

func parseIntParam(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("writing response failed", "error", err)
	}
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
