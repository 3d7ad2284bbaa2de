// Package toc models the table of contents of a documentation branch.
package toc

import (
	"context"
	"strings"
)

// Chapter is one entry of a table of contents.
// Chapters form a tree via children; sibling order is significant.
type Chapter struct {
	title    string
	url      string
	children []Chapter
}

// NewChapter creates a new Chapter.
func NewChapter(title, url string, children []Chapter) Chapter {
	if children == nil {
		children = []Chapter{}
	}
	return Chapter{
		title:    title,
		url:      url,
		children: children,
	}
}

// Title returns the display title, possibly empty.
func (c Chapter) Title() string { return c.title }

// URL returns the document URL, possibly empty.
func (c Chapter) URL() string { return c.url }

// Children returns the nested chapters in order.
func (c Chapter) Children() []Chapter { return c.children }

// HasTitle reports whether the chapter carries a non-blank title.
func (c Chapter) HasTitle() bool { return strings.TrimSpace(c.title) != "" }

// HasDocument reports whether the chapter points at a document.
func (c Chapter) HasDocument() bool { return strings.TrimSpace(c.url) != "" }

// HasChildren reports whether the chapter has nested chapters.
func (c Chapter) HasChildren() bool { return len(c.children) > 0 }

// Walk visits chapters in pre-order: a chapter first, then its children.
// Walking stops at the first error returned by fn.
func Walk(chapters []Chapter, fn func(Chapter) error) error {
	for _, c := range chapters {
		if err := fn(c); err != nil {
			return err
		}
		if err := Walk(c.children, fn); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the total number of chapters in the tree.
func Count(chapters []Chapter) int {
	n := 0
	_ = Walk(chapters, func(Chapter) error {
		n++
		return nil
	})
	return n
}

// Provider resolves the chapter tree of a project branch.
type Provider interface {
	Tree(ctx context.Context, projectID, branch string) ([]Chapter, error)
}
