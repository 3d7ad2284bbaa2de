// Package render turns assembled markup into PDF documents locally.
package render

import (
	"bytes"
	"fmt"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	goldhtml "github.com/yuin/goldmark/renderer/html"
)

// stylesheet keeps headings and code legible on paper.
const stylesheet = `body { font-family: "Helvetica Neue", Arial, sans-serif; font-size: 11pt; line-height: 1.5; margin: 0 1.5cm; }
h1, h2, h3 { page-break-after: avoid; }
pre, code { font-family: "SFMono-Regular", Consolas, monospace; font-size: 9.5pt; }
pre { background: #f6f8fa; padding: 8px; white-space: pre-wrap; }
table { border-collapse: collapse; }
th, td { border: 1px solid #d0d7de; padding: 4px 8px; }
ul { list-style: none; }
`

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	// The title page, page breaks and table of contents are raw HTML.
	goldmark.WithRendererOptions(goldhtml.WithUnsafe()),
)

// HTML converts assembled markup to a standalone HTML document.
func HTML(title, markup string) (string, error) {
	var body bytes.Buffer
	if err := markdown.Convert([]byte(markup), &body); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}

	var doc bytes.Buffer
	doc.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&doc, "<title>%s</title>\n", html.EscapeString(title))
	doc.WriteString("<style>\n" + stylesheet + "</style>\n</head>\n<body>\n")
	doc.Write(body.Bytes())
	doc.WriteString("</body>\n</html>\n")
	return doc.String(), nil
}
