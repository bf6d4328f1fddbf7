package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/dgallion1/docoutline/internal/doctree"
	"github.com/dgallion1/docoutline/internal/outline"
	"github.com/dgallion1/docoutline/internal/parser"
)

// RenderOptions controls how a file is turned into an outlined page.
type RenderOptions struct {
	Outline           outline.Options
	FallbackPdftotext bool
}

// Output is the result of rendering one document.
type Output struct {
	Title    string          `json:"title"`
	Outline  *outline.Result `json:"outline"`
	HTML     string          `json:"-"`
	Duration time.Duration   `json:"-"`
}

// Parse turns r into a page according to filename's extension. The returned
// outline options point at the page's content area and contents list.
func Parse(r io.Reader, filename string, opts RenderOptions) (*doctree.Document, outline.Options, error) {
	outlineOpts := opts.Outline

	p, err := parser.ForFile(filename)
	if err != nil {
		return nil, outlineOpts, err
	}
	if pp, ok := p.(*parser.PDFParser); ok {
		pp.FallbackPdftotext = opts.FallbackPdftotext
	}
	if _, ok := p.(*parser.HTMLParser); !ok {
		// Generated pages always use the default element ids.
		outlineOpts.ContentID = doctree.DefaultContentID
		outlineOpts.ContentsListID = doctree.DefaultContentsListID
	}

	doc, err := p.Parse(r, filename)
	if err != nil {
		return nil, outlineOpts, fmt.Errorf("parse: %w", err)
	}
	return doc, outlineOpts, nil
}

// Build runs the outline builder on doc and serializes the page.
func Build(doc *doctree.Document, opts outline.Options) (*Output, error) {
	start := time.Now()
	res, err := outline.Build(doc.Root, opts)
	if err != nil {
		return nil, fmt.Errorf("build outline: %w", err)
	}
	elapsed := time.Since(start)

	return &Output{
		Title:    doc.Title,
		Outline:  res,
		HTML:     doc.String(),
		Duration: elapsed,
	}, nil
}

// Render parses r and builds its outline.
func Render(r io.Reader, filename string, opts RenderOptions) (*Output, error) {
	doc, outlineOpts, err := Parse(r, filename, opts)
	if err != nil {
		return nil, err
	}
	return Build(doc, outlineOpts)
}
