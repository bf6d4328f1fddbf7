package parser

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/dgallion1/docoutline/internal/doctree"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// csvBatchSize is the number of data rows per section.
const csvBatchSize = 20

// CSVParser handles CSV files. Rows are split into sections of csvBatchSize,
// each with its own heading and table.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	doc := doctree.NewPage(baseTitle(filename))
	if len(records) == 0 {
		return doc, nil
	}
	content := doc.Content()

	// First row is headers.
	headers := records[0]
	dataRows := records[1:]

	for i := 0; i < len(dataRows); i += csvBatchSize {
		end := min(i+csvBatchSize, len(dataRows))

		h := doctree.Element(atom.H2)
		h.AppendChild(doctree.Text(fmt.Sprintf("Rows %d-%d", i+2, end+1))) // 1-indexed, skip header
		content.AppendChild(h)
		content.AppendChild(csvTable(headers, dataRows[i:end]))
	}
	return doc, nil
}

func csvTable(headers []string, rows [][]string) *html.Node {
	table := doctree.Element(atom.Table)
	thead := doctree.Element(atom.Thead)
	thead.AppendChild(csvRow(atom.Th, headers))
	table.AppendChild(thead)

	tbody := doctree.Element(atom.Tbody)
	for _, row := range rows {
		tbody.AppendChild(csvRow(atom.Td, row))
	}
	table.AppendChild(tbody)
	return table
}

func csvRow(cell atom.Atom, values []string) *html.Node {
	tr := doctree.Element(atom.Tr)
	for _, v := range values {
		c := doctree.Element(cell)
		c.AppendChild(doctree.Text(v))
		tr.AppendChild(c)
	}
	return tr
}
