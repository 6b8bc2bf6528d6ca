// Package sanitize turns generated markdown answers into plain text for
// channels that do not render markdown (Telegram without a parse mode, the
// terminal).
package sanitize

import (
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var blankLines = regexp.MustCompile(`\n[ \t]*\n(?:[ \t]*\n)+`)

// Policy strips markdown syntax and embedded HTML from text.
type Policy struct {
	html     *bluemonday.Policy
	markdown goldmark.Markdown
}

// NewPlainTextPolicy creates a Policy that keeps list numbering and link
// targets but drops every other piece of formatting.
func NewPlainTextPolicy() *Policy {
	return &Policy{
		html:     bluemonday.StrictPolicy(),
		markdown: goldmark.New(),
	}
}

// PlainText renders md as plain text. A nil Policy returns md unchanged.
func (p *Policy) PlainText(md string) string {
	if p == nil || strings.TrimSpace(md) == "" {
		return md
	}

	src := []byte(md)
	doc := p.markdown.Parser().Parse(text.NewReader(src))

	var b strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch n := n.(type) {
		case *ast.Text:
			if !entering {
				return ast.WalkContinue, nil
			}
			b.Write(n.Value(src))
			if n.SoftLineBreak() || n.HardLineBreak() {
				b.WriteByte('\n')
			}
		case *ast.String:
			if entering {
				b.Write(n.Value)
			}
		case *ast.AutoLink:
			if entering {
				b.Write(n.URL(src))
			}
			return ast.WalkSkipChildren, nil
		case *ast.Link:
			if !entering && len(n.Destination) > 0 {
				b.WriteString(" (" + string(n.Destination) + ")")
			}
		case *ast.Image:
			if entering {
				b.WriteString(string(n.Destination))
			}
			return ast.WalkSkipChildren, nil
		case *ast.RawHTML:
			if entering {
				b.WriteString(p.stripHTML(string(n.Segments.Value(src))))
			}
		case *ast.HTMLBlock:
			if entering {
				b.WriteString(p.stripHTML(string(n.Lines().Value(src))))
				b.WriteString("\n\n")
			}
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			if entering {
				writeLines(&b, n.Lines(), src)
				b.WriteByte('\n')
			}
			return ast.WalkSkipChildren, nil
		case *ast.ListItem:
			if entering {
				b.WriteString(listMarker(n))
			}
		case *ast.Paragraph, *ast.Heading:
			if !entering {
				b.WriteString("\n\n")
			}
		case *ast.TextBlock:
			if !entering {
				b.WriteByte('\n')
			}
		case *ast.List:
			if !entering && n.Parent() != nil && n.Parent().Kind() == ast.KindDocument {
				b.WriteByte('\n')
			}
		case *ast.ThematicBreak:
			if entering {
				b.WriteString("\n")
			}
		}
		return ast.WalkContinue, nil
	})

	out := blankLines.ReplaceAllString(b.String(), "\n\n")
	return strings.TrimSpace(html.UnescapeString(out))
}

func (p *Policy) stripHTML(s string) string {
	return p.html.Sanitize(s)
}

func writeLines(b *strings.Builder, lines *text.Segments, src []byte) {
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(src))
	}
}

// listMarker returns the indented bullet or number for a list item.
func listMarker(item *ast.ListItem) string {
	depth := 0
	for p := item.Parent(); p != nil; p = p.Parent() {
		if p.Kind() == ast.KindList {
			depth++
		}
	}
	indent := strings.Repeat("  ", max(depth-1, 0))

	list, ok := item.Parent().(*ast.List)
	if !ok || !list.IsOrdered() {
		return indent + "• "
	}
	pos := 0
	for s := item.PreviousSibling(); s != nil; s = s.PreviousSibling() {
		pos++
	}
	return indent + strconv.Itoa(list.Start+pos) + ". "
}
