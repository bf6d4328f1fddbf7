package parser

import (
	"bytes"
	"fmt"
	"io"

	"github.com/dgallion1/docoutline/internal/doctree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmparser "github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// MarkdownParser renders Markdown files to HTML using goldmark.
type MarkdownParser struct{}

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(gmparser.WithAutoHeadingID()),
	goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
)

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := markdown.Convert(src, &buf); err != nil {
		return nil, fmt.Errorf("markdown convert: %w", err)
	}

	doc := doctree.NewPage(baseTitle(filename))
	if err := doctree.SetInnerHTML(doc.Content(), buf.String()); err != nil {
		return nil, err
	}
	return doc, nil
}
