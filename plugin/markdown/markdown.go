// Package markdown reduces markdown sources to plain text. Item transcripts
// may carry light markup from the ingestion side; ask context and RSS bodies
// want the bare words.
package markdown

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Service extracts plain text from markdown.
type Service interface {
	PlainText(source string) string
}

type service struct {
	md goldmark.Markdown
}

// NewService creates a markdown service.
func NewService() Service {
	return &service{
		md: goldmark.New(),
	}
}

// PlainText parses source as markdown and returns its text content with
// markup stripped. Block boundaries collapse to single spaces.
func (s *service) PlainText(source string) string {
	src := []byte(source)
	doc := s.md.Parser().Parse(text.NewReader(src))

	var sb strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if _, ok := n.(*ast.Paragraph); ok {
				sb.WriteByte(' ')
			}
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Text:
			sb.Write(node.Segment.Value(src))
			if node.SoftLineBreak() || node.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.AutoLink:
			sb.Write(node.URL(src))
		case *ast.CodeBlock:
			writeLines(&sb, node, src)
		case *ast.FencedCodeBlock:
			writeLines(&sb, node, src)
		}
		return ast.WalkContinue, nil
	})

	return strings.Join(strings.Fields(sb.String()), " ")
}

func writeLines(sb *strings.Builder, node ast.Node, src []byte) {
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		sb.Write(segment.Value(src))
		sb.WriteByte(' ')
	}
}
