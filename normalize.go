package sift

import (
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
	"golang.org/x/text/unicode/norm"
)

// Normalizer rewrites a resolved field's text before chunking. Because
// normalization runs first, chunk ids stay stable for stable input.
// Normalizers must be pure: same input, same output.
type Normalizer interface {
	Normalize(text string) string
}

// NormalizerFunc adapts a function to the Normalizer interface.
type NormalizerFunc func(text string) string

func (f NormalizerFunc) Normalize(text string) string { return f(text) }

// ChainNormalizers applies normalizers left to right.
func ChainNormalizers(normalizers ...Normalizer) Normalizer {
	return NormalizerFunc(func(text string) string {
		for _, n := range normalizers {
			text = n.Normalize(text)
		}
		return text
	})
}

// UnicodeNormalizer applies Unicode NFC normalization so visually
// identical field values produce identical chunks and ids regardless of
// how the source system composed them.
type UnicodeNormalizer struct{}

func (UnicodeNormalizer) Normalize(text string) string {
	return norm.NFC.String(text)
}

// MarkdownNormalizer strips markdown structure from a field value,
// keeping only its text content. Parsing failures fall back to the
// input unchanged.
type MarkdownNormalizer struct {
	md goldmark.Markdown
}

// NewMarkdownNormalizer creates a MarkdownNormalizer.
func NewMarkdownNormalizer() *MarkdownNormalizer {
	return &MarkdownNormalizer{md: goldmark.New()}
}

func (m *MarkdownNormalizer) Normalize(text string) string {
	source := []byte(text)
	doc := m.md.Parser().Parse(gmtext.NewReader(source))

	var b strings.Builder
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Text:
			b.Write(node.Segment.Value(source))
			if node.SoftLineBreak() || node.HardLineBreak() {
				b.WriteByte('\n')
			}
		case *ast.Paragraph, *ast.Heading, *ast.ListItem:
			if b.Len() > 0 {
				b.WriteByte('\n')
			}
		case *ast.FencedCodeBlock:
			for i := 0; i < node.Lines().Len(); i++ {
				line := node.Lines().At(i)
				b.Write(line.Value(source))
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return text
	}
	return strings.TrimSpace(b.String())
}

// HTMLNormalizer extracts readable text from an HTML field value using
// the readability algorithm. Values that fail extraction (fragments,
// non-articles) fall back to the input unchanged.
type HTMLNormalizer struct{}

// fieldURL anchors relative links during extraction; field values have
// no real origin.
var fieldURL = &url.URL{Scheme: "http", Host: "localhost"}

func (HTMLNormalizer) Normalize(text string) string {
	article, err := readability.FromReader(strings.NewReader(text), fieldURL)
	if err != nil || article.TextContent == "" {
		return text
	}
	return strings.TrimSpace(article.TextContent)
}
