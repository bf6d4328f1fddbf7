package parser

import (
	"fmt"
	"io"

	"github.com/dgallion1/docoutline/internal/doctree"
	"golang.org/x/net/html/charset"
)

// HTMLParser handles HTML files. The page is kept as written; it must carry
// its own content area and contents list.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	// Pages declaring a legacy charset are converted to UTF-8 first.
	utf8r, err := charset.NewReader(r, "")
	if err != nil {
		return nil, fmt.Errorf("detect charset: %w", err)
	}
	doc, err := doctree.Parse(utf8r)
	if err != nil {
		return nil, err
	}
	if doc.Title == "" {
		doc.Title = baseTitle(filename)
	}
	return doc, nil
}
