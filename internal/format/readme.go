package format

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var (
	readmeParser = goldmark.New(goldmark.WithExtensions(extension.GFM)).Parser()
	blankRuns    = regexp.MustCompile(`\n{3,}`)
)

// ReadmeText turns a markdown README into plain text suited for chat
// messages. Images and raw HTML are dropped, lists get bullets and code
// blocks are kept line by line.
func ReadmeText(markdown string) string {
	src := []byte(markdown)
	doc := readmeParser.Parse(text.NewReader(src))

	var b strings.Builder
	newline := func() {
		s := b.String()
		if len(s) > 0 && !strings.HasSuffix(s, "\n") {
			b.WriteString("\n")
		}
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Image, *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			if entering {
				b.Write(node.Segment.Value(src))
				if node.HardLineBreak() {
					b.WriteString("\n")
				} else if node.SoftLineBreak() {
					b.WriteString(" ")
				}
			}
		case *ast.String:
			if entering {
				b.Write(node.Value)
			}
		case *ast.AutoLink:
			if entering {
				b.Write(node.Label(src))
			}
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			if entering {
				newline()
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					b.Write(seg.Value(src))
				}
				newline()
				b.WriteString("\n")
			}
			return ast.WalkSkipChildren, nil
		case *ast.Heading, *ast.Paragraph:
			if !entering {
				b.WriteString("\n\n")
			}
		case *ast.ThematicBreak:
			if entering {
				newline()
				b.WriteString("──────────\n\n")
			}
		case *ast.ListItem:
			if entering {
				newline()
				b.WriteString(strings.Repeat("  ", listDepth(n)-1))
				b.WriteString("• ")
			} else {
				newline()
			}
		case *ast.List:
			if !entering && listDepth(n) == 0 {
				b.WriteString("\n")
			}
		case *east.TableCell:
			if entering && n.PreviousSibling() != nil {
				b.WriteString(" | ")
			}
		case *east.TableHeader, *east.TableRow:
			if !entering {
				b.WriteString("\n")
			}
		case *east.Table:
			if !entering {
				b.WriteString("\n")
			}
		}
		return ast.WalkContinue, nil
	})

	lines := strings.Split(b.String(), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	out := blankRuns.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(out)
}

// listDepth counts the List ancestors of n
func listDepth(n ast.Node) int {
	depth := 0
	for p := n.Parent(); p != nil; p = p.Parent() {
		if _, ok := p.(*ast.List); ok {
			depth++
		}
	}
	return depth
}
