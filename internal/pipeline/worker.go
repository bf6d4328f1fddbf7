package pipeline

import (
	"bytes"
	"context"
	"errors"
	"log/slog"

	"github.com/dgallion1/docoutline/internal/outline"
	"github.com/dgallion1/docoutline/internal/stats"
)

// Worker processes a single document job.
type Worker struct {
	log   *slog.Logger
	opts  RenderOptions
	stats *stats.BuildStats
}

func NewWorker(log *slog.Logger, opts RenderOptions, st *stats.BuildStats) *Worker {
	return &Worker{
		log:   log,
		opts:  opts,
		stats: st,
	}
}

// Process parses the uploaded file, builds its outline and stores the result
// on the job. Each job owns its document tree.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID, "filename", job.Filename)

	if err := ctx.Err(); err != nil {
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "cancelled")
		return
	}

	job.SetStatus(StatusParsing, "parsing")
	doc, outlineOpts, err := Parse(bytes.NewReader(job.FileData()), job.Filename, w.opts)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	if job.Title != "" {
		doc.SetTitle(job.Title)
	}

	job.SetStatus(StatusBuilding, "building")
	out, err := Build(doc, outlineOpts)
	if err != nil {
		if errors.Is(err, outline.ErrNoContentRoot) {
			log.Warn("document has no content area", "content_id", outlineOpts.ContentID)
		} else {
			log.Error("build failed", "error", err)
		}
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "building")
		return
	}

	if w.stats != nil {
		w.stats.Record(out.Duration, out.Outline.Headers, out.Outline.Truncated)
	}
	if out.Outline.Truncated {
		log.Warn("outline truncated", "visited", out.Outline.Visited)
	}

	job.SetOutput(out)
	job.SetStatus(StatusCompleted, "done")
	log.Info("outline built",
		"headers", out.Outline.Headers,
		"entries", len(out.Outline.Entries),
		"start_level", out.Outline.StartLevel,
		"skipped", out.Outline.Skipped,
		"duration_ms", out.Duration.Milliseconds(),
	)
}
