package service

import (
	"context"
	"html"
	"strings"
	"time"

	"github.com/bibliotheca/gateway/domain/document"
	"github.com/bibliotheca/gateway/domain/project"
	"github.com/bibliotheca/gateway/domain/toc"
)

// DateLayout is the format of the date printed on the title page.
const DateLayout = "02 January 2006"

const pageBreak = `<p style="page-break-after:always;"></p>` + "\n"

// FetchFunc resolves the raw bytes stored under a document key.
type FetchFunc func(ctx context.Context, key string) ([]byte, error)

// Assembler builds the intermediate markup document of an export.
// It holds no per-export state; every call owns its own buffer.
type Assembler struct {
	now func() time.Time
}

// NewAssembler creates a new Assembler using the wall clock.
func NewAssembler() *Assembler {
	return &Assembler{now: time.Now}
}

// WithClock returns a copy of the assembler that reads the date from now.
func (a *Assembler) WithClock(now func() time.Time) *Assembler {
	return &Assembler{now: now}
}

// TitlePage renders the branch label, current date, project name and
// description. Metadata is HTML-escaped.
func (a *Assembler) TitlePage(p project.Project, branch string) string {
	var b strings.Builder
	b.WriteString(`<div style="text-align: right;"><div>version: `)
	b.WriteString(html.EscapeString(branch))
	b.WriteString(`</div><div>date: `)
	b.WriteString(a.now().Format(DateLayout))
	b.WriteString("</div></div>\n")
	b.WriteString(`<div style="margin-top: 200px"><center><h1>`)
	b.WriteString(html.EscapeString(p.Name()))
	b.WriteString("</h1></center></div>\n")
	b.WriteString(`<div><div style="text-align: center; width: 240px;margin-top: 50px; margin-left: auto; margin-right: auto;">`)
	b.WriteString(html.EscapeString(p.Description()))
	b.WriteString("</div></div>\n")
	return b.String()
}

// PageBreak returns the page break directive.
func (a *Assembler) PageBreak() string {
	return pageBreak
}

// TableOfContents renders the chapter tree as nested lists.
func (a *Assembler) TableOfContents(chapters []toc.Chapter) string {
	var b strings.Builder
	writeList(&b, chapters)
	return b.String()
}

func writeList(b *strings.Builder, chapters []toc.Chapter) {
	b.WriteString("<ul>\n")
	for _, c := range chapters {
		b.WriteString("<li>")
		if c.HasTitle() {
			b.WriteString("<span>")
			b.WriteString(html.EscapeString(c.Title()))
			b.WriteString("</span>")
		}
		if c.HasChildren() {
			writeList(b, c.Children())
		}
		b.WriteString("</li>")
	}
	b.WriteString("</ul>\n")
}

// Body concatenates the documents of the tree in pre-order, each followed
// by two blank lines. Documents are fetched one at a time; the first
// failure aborts assembly. Invalid UTF-8 is replaced with U+FFFD.
func (a *Assembler) Body(ctx context.Context, chapters []toc.Chapter, fetch FetchFunc) (string, error) {
	var b strings.Builder
	if err := a.writeBody(ctx, &b, chapters, fetch); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (a *Assembler) writeBody(ctx context.Context, b *strings.Builder, chapters []toc.Chapter, fetch FetchFunc) error {
	for _, c := range chapters {
		if c.HasDocument() {
			key := document.StorageKey(c.URL())
			content, err := fetch(ctx, key)
			if err != nil {
				return &DocumentFetchError{URL: c.URL(), Key: key, Err: err}
			}
			b.WriteString(strings.ToValidUTF8(string(content), "\uFFFD"))
			b.WriteString("\n\n")
		}
		if err := a.writeBody(ctx, b, c.Children(), fetch); err != nil {
			return err
		}
	}
	return nil
}

// Document assembles the complete intermediate text: title page, page
// break, table of contents, page break, body.
func (a *Assembler) Document(ctx context.Context, p project.Project, branch string, chapters []toc.Chapter, fetch FetchFunc) (string, error) {
	var b strings.Builder
	b.WriteString(a.TitlePage(p, branch))
	b.WriteString(a.PageBreak())
	writeList(&b, chapters)
	b.WriteString(a.PageBreak())
	if err := a.writeBody(ctx, &b, chapters, fetch); err != nil {
		return "", err
	}
	return b.String(), nil
}
