package api

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/dgallion1/docoutline/internal/outline"
	"github.com/dgallion1/docoutline/internal/pipeline"
)

// handleOutline builds the outline of one upload synchronously.
func (s *Server) handleOutline(w http.ResponseWriter, r *http.Request) {
	filename, data, ok := s.parseSingleUpload(w, r)
	if !ok {
		return
	}
	defer r.MultipartForm.RemoveAll()

	doc, outlineOpts, err := pipeline.Parse(bytes.NewReader(data), filename, s.orchestrator.RenderOptions())
	if err != nil {
		s.log.Warn("parse failed", "filename", filename, "error", err)
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if title := r.FormValue("title"); title != "" {
		doc.SetTitle(title)
	}

	out, err := pipeline.Build(doc, outlineOpts)
	if err != nil {
		if !errors.Is(err, outline.ErrNoContentRoot) {
			s.log.Warn("outline failed", "filename", filename, "error", err)
		}
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if s.stats != nil {
		s.stats.Record(out.Duration, out.Outline.Headers, out.Outline.Truncated)
	}

	if r.URL.Query().Get("format") == "html" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(out.HTML))
		return
	}
	hash := pipeline.ContentHashHex(data)
	writeJSON(w, http.StatusOK, map[string]any{
		"filename":     filename,
		"doc_id":       hash[:16],
		"content_hash": hash,
		"title":        out.Title,
		"outline":      out.Outline,
		"duration_ms":  out.Duration.Milliseconds(),
	})
}
