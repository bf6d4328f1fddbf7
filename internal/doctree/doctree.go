package doctree

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Default element ids of the page skeleton.
const (
	DefaultContentID      = "content"
	DefaultContentsListID = "contentsList"
)

// Document is a parsed HTML page.
type Document struct {
	Title string     // Document title (from <title> or filename)
	Root  *html.Node // html.DocumentNode
}

// Parse reads a complete HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	doc := &Document{Root: root}
	if t := FindTag(root, atom.Title); t != nil {
		doc.Title = TextContent(t)
	}
	return doc, nil
}

// NewPage builds an empty page with a contents list and a content area:
//
//	<!DOCTYPE html>
//	<html><head><title/></head><body>
//	  <nav><ul id="contentsList"></ul></nav>
//	  <div id="content"></div>
//	</body></html>
func NewPage(title string) *Document {
	root := &html.Node{Type: html.DocumentNode}
	root.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	htmlEl := Element(atom.Html)
	head := Element(atom.Head)
	titleEl := Element(atom.Title)
	titleEl.AppendChild(Text(title))
	head.AppendChild(titleEl)

	body := Element(atom.Body)
	nav := Element(atom.Nav)
	nav.AppendChild(Element(atom.Ul, html.Attribute{Key: "id", Val: DefaultContentsListID}))
	body.AppendChild(nav)
	body.AppendChild(Element(atom.Div, html.Attribute{Key: "id", Val: DefaultContentID}))

	htmlEl.AppendChild(head)
	htmlEl.AppendChild(body)
	root.AppendChild(htmlEl)
	return &Document{Title: title, Root: root}
}

// Content returns the default content area of a page built by NewPage.
func (d *Document) Content() *html.Node {
	return ElementByID(d.Root, DefaultContentID)
}

// SetTitle replaces the title and the text of the page's <title> element.
func (d *Document) SetTitle(title string) {
	d.Title = title
	t := FindTag(d.Root, atom.Title)
	if t == nil {
		return
	}
	for c := t.FirstChild; c != nil; {
		next := c.NextSibling
		t.RemoveChild(c)
		c = next
	}
	t.AppendChild(Text(title))
}

// Render serializes the whole document.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.Root)
}

// String renders the document, returning "" if rendering fails.
func (d *Document) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}

// Element creates a detached element node.
func Element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: a,
		Data:     a.String(),
		Attr:     attrs,
	}
}

// Text creates a detached text node. The renderer escapes it.
func Text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// ElementByID finds the first element below n (inclusive) whose id equals id.
func ElementByID(n *html.Node, id string) *html.Node {
	if n == nil {
		return nil
	}
	if n.Type == html.ElementNode && Attr(n, "id") == id {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := ElementByID(c, id); found != nil {
			return found
		}
	}
	return nil
}

// FindTag returns the first element below n (inclusive) with the given tag.
func FindTag(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := FindTag(c, a); found != nil {
			return found
		}
	}
	return nil
}

// Attr returns the value of attribute key, or "".
func Attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

// TextContent concatenates and trims all text below n.
func TextContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

// InnerHTML serializes the children of n, preserving markup.
func InnerHTML(n *html.Node) string {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return buf.String()
		}
	}
	return buf.String()
}

// SetInnerHTML replaces all children of n with the parsed markup.
func SetInnerHTML(n *html.Node, markup string) error {
	nodes, err := html.ParseFragment(strings.NewReader(markup), n)
	if err != nil {
		return fmt.Errorf("parse fragment: %w", err)
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	for _, c := range nodes {
		n.AppendChild(c)
	}
	return nil
}
