package parser

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/dgallion1/docoutline/internal/doctree"
	pdflib "github.com/ledongthuc/pdf"
	"golang.org/x/net/html/atom"
)

// PDFParser handles PDF files. It tries the Go library first,
// then falls back to pdftotext if available. Every page becomes an
// <h2>Page N</h2> followed by its text in a <pre>.
type PDFParser struct {
	FallbackPdftotext bool
}

func (p *PDFParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	// ledongthuc/pdf requires a ReadSeeker+size, so we write to a temp file.
	tmp, err := os.CreateTemp("", "docoutline-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	text, err := extractPDFText(tmpPath)
	if err != nil && p.FallbackPdftotext {
		text, err = extractPdftotext(tmpPath)
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	doc := doctree.NewPage(baseTitle(filename))
	appendPages(doc, text)
	return doc, nil
}

// appendPages adds one section per form-feed separated page.
func appendPages(doc *doctree.Document, text string) {
	content := doc.Content()
	for i, page := range splitPages(text) {
		page = strings.TrimSpace(page)
		if page == "" {
			continue
		}
		h := doctree.Element(atom.H2)
		h.AppendChild(doctree.Text(fmt.Sprintf("Page %d", i+1)))
		pre := doctree.Element(atom.Pre)
		pre.AppendChild(doctree.Text(page))
		content.AppendChild(h)
		content.AppendChild(pre)
	}
}

func extractPDFText(path string) (string, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var buf strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		if i > 1 {
			buf.WriteString("\f") // Form feed as page separator.
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		buf.WriteString(text)
	}
	return buf.String(), nil
}

func extractPdftotext(path string) (string, error) {
	cmd := exec.Command("pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return string(out), nil
}

func splitPages(text string) []string {
	return strings.Split(text, "\f")
}
