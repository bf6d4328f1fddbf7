// Package outline builds a nested table-of-contents menu from the header
// elements of an HTML content area and inserts link targets before them.
package outline

import (
	"errors"
	"strconv"
	"strings"

	"github.com/dgallion1/docoutline/internal/doctree"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultMaxVisits bounds the traversal against malformed or cyclic trees.
const DefaultMaxVisits = 10000

// DefaultAnchorPrefix is prepended to the header counter to form anchor ids.
const DefaultAnchorPrefix = "anchor"

// ErrNoContentRoot is returned when the output target exists but the
// content area does not.
var ErrNoContentRoot = errors.New("content root not found")

var headerTags = [...]atom.Atom{atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6}

// Options configures a build. Zero values fall back to the defaults.
type Options struct {
	ContentID      string
	ContentsListID string
	AnchorPrefix   string
	MaxVisits      int
}

func (o Options) withDefaults() Options {
	if o.ContentID == "" {
		o.ContentID = doctree.DefaultContentID
	}
	if o.ContentsListID == "" {
		o.ContentsListID = doctree.DefaultContentsListID
	}
	if o.AnchorPrefix == "" {
		o.AnchorPrefix = DefaultAnchorPrefix
	}
	if o.MaxVisits <= 0 {
		o.MaxVisits = DefaultMaxVisits
	}
	return o
}

// Entry is one menu item of the outline.
type Entry struct {
	Anchor string `json:"anchor"`
	Level  int    `json:"level"`
	Title  string `json:"title"`
	HTML   string `json:"html"`
}

// Result describes a finished build.
type Result struct {
	// Skipped is set when the output target was missing and nothing was done.
	Skipped bool `json:"skipped"`
	// Markup is the nested list written into the output target.
	Markup     string  `json:"markup"`
	Entries    []Entry `json:"entries"`
	Headers    int     `json:"headers"`
	StartLevel int     `json:"start_level"`
	Visited    int     `json:"visited"`
	// Truncated is set when the visit cap stopped the traversal early.
	Truncated bool `json:"truncated"`
}

// Build locates the content area and the output target inside doc by id and
// runs BuildInto on them. A missing output target is a no-op.
func Build(doc *html.Node, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	target := doctree.ElementByID(doc, opts.ContentsListID)
	if target == nil {
		return &Result{Skipped: true}, nil
	}
	root := doctree.ElementByID(doc, opts.ContentID)
	if root == nil {
		return nil, ErrNoContentRoot
	}
	return BuildInto(root, target, opts)
}

// BuildInto walks root, inserts an anchor before every qualifying header and
// replaces the children of target with the generated outline. A nil target
// is a no-op that leaves root untouched.
//
// The tree is mutated, so calling BuildInto twice on the same root inserts a
// second set of anchors with colliding ids.
func BuildInto(root, target *html.Node, opts Options) (*Result, error) {
	if target == nil {
		return &Result{Skipped: true}, nil
	}
	if root == nil {
		return nil, ErrNoContentRoot
	}
	b := newBuilder(root, opts.withDefaults())
	res := b.run()
	if err := doctree.SetInnerHTML(target, res.Markup); err != nil {
		return nil, err
	}
	return res, nil
}

// Walk runs the traversal on root and returns the outline without writing it
// anywhere. Anchors are still inserted into root.
func Walk(root *html.Node, opts Options) *Result {
	if root == nil {
		return &Result{}
	}
	return newBuilder(root, opts.withDefaults()).run()
}

// builder holds the state of a single traversal.
type builder struct {
	root *html.Node
	opts Options

	out        strings.Builder
	entries    []Entry
	counter    int
	startLevel int
	lastLevel  int
	visited    int
}

func newBuilder(root *html.Node, opts Options) *builder {
	return &builder{root: root, opts: opts}
}

// count returns how many elements below root carry tag a. It covers the
// whole tree regardless of the visit cap and stops at the first node it has
// already seen.
func (b *builder) count(a atom.Atom) int {
	total := 0
	seen := make(map[*html.Node]struct{})
	for n := b.root.FirstChild; n != nil; n = b.next(n) {
		if _, ok := seen[n]; ok {
			break
		}
		seen[n] = struct{}{}
		if n.Type == html.ElementNode && n.DataAtom == a {
			total++
		}
	}
	return total
}

func (b *builder) run() *Result {
	n := b.root.FirstChild
	for n != nil && b.visited < b.opts.MaxVisits {
		b.visited++
		if level := headerLevel(n); level > 0 {
			b.header(n, level)
		}
		n = b.next(n)
		if n == nil {
			b.closeAll()
		}
	}
	return &Result{
		Markup:     b.out.String(),
		Entries:    b.entries,
		Headers:    b.counter,
		StartLevel: b.startLevel,
		Visited:    b.visited,
		Truncated:  n != nil,
	}
}

func (b *builder) header(n *html.Node, level int) {
	b.counter++
	if b.startLevel == 0 {
		b.startLevel = level
		if b.count(n.DataAtom) <= 1 {
			b.startLevel = level + 1
		}
		b.lastLevel = b.startLevel - 1
	}
	if level < b.startLevel {
		return
	}

	id := b.opts.AnchorPrefix + strconv.Itoa(b.counter)
	n.Parent.InsertBefore(doctree.Element(atom.A,
		html.Attribute{Key: "id", Val: id},
		html.Attribute{Key: "name", Val: id},
	), n)

	for i := level; i < b.lastLevel; i++ {
		b.out.WriteString("</li></ul>")
	}
	for i := level; i > b.lastLevel+1; i-- {
		b.out.WriteString("<ul><li>")
	}
	if level > b.lastLevel {
		b.out.WriteString("<ul>")
	}
	if level == b.lastLevel {
		b.out.WriteString("</li>")
	}

	inner := doctree.InnerHTML(n)
	b.out.WriteString(`<li><a href="#` + id + `">` + inner + "</a>")
	b.entries = append(b.entries, Entry{
		Anchor: id,
		Level:  level,
		Title:  doctree.TextContent(n),
		HTML:   inner,
	})
	b.lastLevel = level
}

// next returns the node after n in pre-order, or nil once the walk climbs
// back to the root.
func (b *builder) next(n *html.Node) *html.Node {
	if n.FirstChild != nil {
		return n.FirstChild
	}
	for n != b.root {
		if n.NextSibling != nil {
			return n.NextSibling
		}
		n = n.Parent
		if n == nil {
			return nil
		}
	}
	return nil
}

// closeAll closes the lists still open between the last and the start level.
func (b *builder) closeAll() {
	if b.startLevel == 0 {
		return
	}
	for i := b.lastLevel; i >= b.startLevel; i-- {
		b.out.WriteString("</li></ul>")
	}
}

func headerLevel(n *html.Node) int {
	if n.Type != html.ElementNode {
		return 0
	}
	for i, a := range headerTags {
		if n.DataAtom == a {
			return i + 1
		}
	}
	return 0
}
