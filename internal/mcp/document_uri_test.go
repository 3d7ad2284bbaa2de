package mcp

import (
	"errors"
	"testing"
)

func TestDocumentURI_String(t *testing.T) {
	uri := NewDocumentURI("Docs", "feature/x", "guide/setup")

	want := "doc://Docs/feature%2Fx/guide/setup"
	if got := uri.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestParseDocumentURI(t *testing.T) {
	uri, err := ParseDocumentURI("doc://Docs/feature%2Fx/guide/setup")
	if err != nil {
		t.Fatalf("ParseDocumentURI() error = %v", err)
	}
	if uri.ProjectID() != "Docs" || uri.Branch() != "feature/x" || uri.URL() != "guide/setup" {
		t.Errorf("ParseDocumentURI() = %+v", uri)
	}
}

func TestParseDocumentURI_Invalid(t *testing.T) {
	for _, raw := range []string{"file://1/a/b", "doc://Docs", "doc://Docs/v1/", "doc:///v1/a"} {
		if _, err := ParseDocumentURI(raw); !errors.Is(err, ErrInvalidDocumentURI) {
			t.Errorf("ParseDocumentURI(%q) error = %v, want ErrInvalidDocumentURI", raw, err)
		}
	}
}
