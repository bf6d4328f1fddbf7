package api

import (
	"fmt"
	"net/http"

	"github.com/dgallion1/docoutline/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	filename, data, ok := s.parseSingleUpload(w, r)
	if !ok {
		return
	}
	defer r.MultipartForm.RemoveAll()

	job := pipeline.NewJob(filename, r.FormValue("title"), data)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusAccepted, submitted(job))
}

func (s *Server) handleBatchSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*10+10*1024*1024)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}

	results := make([]map[string]any, 0, len(files))
	for _, fh := range files {
		filename, data, err := s.readUpload(fh)
		if err != nil {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    err.Error(),
			})
			continue
		}

		job := pipeline.NewJob(filename, "", data)
		if err := s.orchestrator.Submit(job); err != nil {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    err.Error(),
			})
			continue
		}
		results = append(results, submitted(job))
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"jobs": results})
}

func submitted(job *pipeline.Job) map[string]any {
	snap := job.Snapshot()
	return map[string]any{
		"filename": snap.Filename,
		"job_id":   snap.ID,
		"doc_id":   snap.DocID,
		"status":   snap.Status,
		"poll_url": fmt.Sprintf("/api/jobs/%s/status", snap.ID),
	}
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job := s.lookupJob(w, r)
	if job == nil {
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

func (s *Server) handleJobResult(w http.ResponseWriter, r *http.Request) {
	job := s.lookupJob(w, r)
	if job == nil {
		return
	}
	res, ok := job.Result()
	if !ok {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":  "job has no result",
			"status": res.Status,
			"phase":  res.Phase,
		})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleJobDocument serves the rendered page with anchors and outline.
func (s *Server) handleJobDocument(w http.ResponseWriter, r *http.Request) {
	job := s.lookupJob(w, r)
	if job == nil {
		return
	}
	out := job.Output()
	if out == nil {
		jsonError(w, "job has no result", http.StatusConflict)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(out.HTML))
}

func (s *Server) lookupJob(w http.ResponseWriter, r *http.Request) *pipeline.Job {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
	}
	return job
}
