package resume

import (
	"context"
	"errors"
	"testing"

	"github.com/ledongthuc/pdf"

	"github.com/rddesigner/GoogleAI-Rita-Das-Smart-Interview-Assistant/internal/domain"
)

func TestExtractTextRejectsNonPDF(t *testing.T) {
	e := NewExtractor()

	cases := map[string][]byte{
		"empty":      nil,
		"plain text": []byte("Jane Doe, UX Designer"),
		"truncated":  []byte("%PDF-1.7"),
	}

	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := e.ExtractText(context.Background(), data)
			if !errors.Is(err, domain.ErrInvalidFormat) {
				t.Fatalf("expected ErrInvalidFormat, got %v", err)
			}
		})
	}
}

func TestJoinRuns(t *testing.T) {
	runs := []pdf.Text{
		{S: "Jane"},
		{S: "Doe,"},
		{S: "  "},
		{S: "UX Designer"},
	}

	got := joinRuns(runs)
	want := "Jane Doe, UX Designer"
	if got != want {
		t.Fatalf("joinRuns = %q, want %q", got, want)
	}
}

func TestJoinPagesBlankLineSeparator(t *testing.T) {
	got := joinPages([]string{"page one", "page two", "page three"})
	want := "page one\n\npage two\n\npage three"
	if got != want {
		t.Fatalf("joinPages = %q, want %q", got, want)
	}
}
