package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/poiesic/docsift/core"
	"github.com/poiesic/docsift/pipeline"
	"github.com/poiesic/docsift/source"
	"github.com/poiesic/docsift/storage"
)

// extractRequest carries the query and the documents inline. Text formats
// go in Content; PDFs go base64-encoded in Data.
type extractRequest struct {
	Persona   string             `json:"persona"`
	Job       string             `json:"job"`
	Documents []uploadedDocument `json:"documents"`
}

type uploadedDocument struct {
	ID      string `json:"id"`
	Content string `json:"content,omitempty"`
	Data    []byte `json:"data,omitempty"`
}

type extractResponse struct {
	RunID string `json:"run_id"`
	*core.Result
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)

	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Documents) == 0 {
		jsonError(w, "at least one document is required", http.StatusBadRequest)
		return
	}

	src := source.NewMemorySource()
	ids := make([]string, 0, len(req.Documents))
	seen := make(map[string]int, len(req.Documents))
	for i, doc := range req.Documents {
		id := sanitizeID(doc.ID)
		if id == "" {
			jsonError(w, fmt.Sprintf("documents[%d]: id is required", i), http.StatusBadRequest)
			return
		}
		if j, dup := seen[id]; dup {
			jsonError(w, fmt.Sprintf("documents[%d]: id %q duplicates documents[%d]", i, id, j), http.StatusBadRequest)
			return
		}
		seen[id] = i
		if !source.Supported(id) {
			jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(id)), http.StatusBadRequest)
			return
		}
		data := doc.Data
		if len(data) == 0 {
			data = []byte(doc.Content)
		}
		src.Add(id, data)
		ids = append(ids, id)
	}

	p, err := s.engine.NewPipeline(src)
	if err != nil {
		s.log.Error("failed to build pipeline", "err", err)
		jsonError(w, "failed to build pipeline", http.StatusInternalServerError)
		return
	}
	defer p.Release()

	run, err := p.Execute(r.Context(), pipeline.Request{
		Persona:   req.Persona,
		Job:       req.Job,
		Documents: ids,
	})
	if err != nil {
		jsonError(w, err.Error(), statusFor(err))
		return
	}

	writeJSON(w, http.StatusOK, extractResponse{RunID: run.ID, Result: run.Result})
}

func (s *Server) handleDomains(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"domains": s.engine.Table().Names()})
}

func (s *Server) handleRecentRuns(w http.ResponseWriter, r *http.Request) {
	runs := s.engine.Runs()
	if runs == nil {
		jsonError(w, "run history is disabled", http.StatusNotFound)
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	records, err := runs.RecentRuns(r.Context(), limit)
	if err != nil {
		s.log.Error("failed to list runs", "err", err)
		jsonError(w, "failed to list runs", http.StatusInternalServerError)
		return
	}
	out := make([]runJSON, len(records))
	for i, rec := range records {
		out[i] = toRunJSON(rec)
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": out})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runs := s.engine.Runs()
	if runs == nil {
		jsonError(w, "run history is disabled", http.StatusNotFound)
		return
	}
	rec, err := runs.GetRun(r.Context(), chi.URLParam(r, "runID"))
	if errors.Is(err, storage.ErrNotFound) {
		jsonError(w, "run not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.log.Error("failed to get run", "err", err)
		jsonError(w, "failed to get run", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toRunJSON(rec))
}

type runJSON struct {
	ID         string  `json:"id"`
	Persona    string  `json:"persona"`
	Job        string  `json:"job_to_be_done"`
	Domain     string  `json:"domain"`
	Policy     string  `json:"selection_policy"`
	StartedAt  string  `json:"started_at"`
	ElapsedSec float64 `json:"elapsed_seconds"`
	Documents  int     `json:"documents"`
	Failed     int     `json:"failed"`
	Selected   int     `json:"selected"`
}

func toRunJSON(rec *core.RunRecord) runJSON {
	return runJSON{
		ID:         rec.ID,
		Persona:    rec.Persona,
		Job:        rec.Job,
		Domain:     rec.Domain,
		Policy:     rec.Policy,
		StartedAt:  rec.StartedAt.Format(time.RFC3339Nano),
		ElapsedSec: rec.Elapsed.Seconds(),
		Documents:  rec.Documents,
		Failed:     rec.Failed,
		Selected:   rec.Selected,
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrEmbeddingUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func sanitizeID(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return filepath.Base(strings.ReplaceAll(name, "\\", "/"))
}
