// Package markdown reduces Markdown and HTML to the prose they contain, so
// that code, link targets and tags do not skew trigram statistics.
package markdown

import (
	"regexp"
	"strings"

	"github.com/gomarkdown/markdown/ast"
	"github.com/gomarkdown/markdown/parser"
	"golang.org/x/net/html"

	"github.com/valpere/lequel/internal/trigram"
)

var (
	reURL   = regexp.MustCompile(`\b(?:https?|ftp)://\S+|\bwww\.\S+`)
	reEmail = regexp.MustCompile(`[\w.+-]+@[\w-]+(?:\.[\w-]+)+`)
)

// Parse parses md with the extensions used for plain-text extraction. Math
// is left off so that prices such as "$5" stay text.
func Parse(md []byte) ast.Node {
	ext := (parser.CommonExtensions | parser.Attributes) &^ parser.MathJax
	p := parser.NewWithExtensions(ext)
	return p.Parse(md)
}

// ToPlainText returns the text leaves of md. Code blocks, inline code, HTML
// tags and link destinations are dropped; link labels and image alt text are
// kept. Bare URLs and e-mail addresses are removed from what remains.
func ToPlainText(md []byte) string {
	var b strings.Builder

	ast.WalkFunc(Parse(md), func(node ast.Node, entering bool) ast.WalkStatus {
		switch n := node.(type) {
		case *ast.Text:
			b.WriteString(html.UnescapeString(string(n.Literal)))
		case *ast.Code, *ast.HTMLSpan:
			b.WriteByte(' ')
		case *ast.CodeBlock:
			b.WriteByte('\n')
		case *ast.HTMLBlock:
			b.WriteString(StripHTMLTags(string(n.Literal)))
			b.WriteByte('\n')
		case *ast.Softbreak, *ast.Hardbreak:
			b.WriteByte('\n')
		case *ast.TableCell:
			if !entering {
				b.WriteByte(' ')
			}
		case *ast.Paragraph, *ast.Heading, *ast.ListItem, *ast.TableRow:
			if !entering {
				b.WriteByte('\n')
			}
		}
		return ast.GoToNext
	})

	s := reURL.ReplaceAllString(b.String(), " ")
	return reEmail.ReplaceAllString(s, " ")
}

// StripHTMLTags returns the text content of an HTML fragment. Script and
// style bodies are dropped and every tag becomes a space.
func StripHTMLTags(fragment string) string {
	var b strings.Builder
	skip := 0

	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken:
			if rawTextTag(z) {
				skip++
			}
			b.WriteByte(' ')
		case html.EndTagToken:
			if rawTextTag(z) && skip > 0 {
				skip--
			}
			b.WriteByte(' ')
		case html.SelfClosingTagToken:
			b.WriteByte(' ')
		}
	}
}

func rawTextTag(z *html.Tokenizer) bool {
	name, _ := z.TagName()
	switch string(name) {
	case "script", "style":
		return true
	}
	return false
}

// Strip reduces text to its prose lines. Blank lines left behind by removed
// blocks are dropped.
func Strip(text trigram.Text) trigram.Text {
	if len(text) == 0 {
		return text
	}

	plain := ToPlainText([]byte(strings.Join(text, "\n")))

	var out trigram.Text
	for _, line := range strings.Split(plain, "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}
