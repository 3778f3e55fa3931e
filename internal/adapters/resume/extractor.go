package resume

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/rddesigner/GoogleAI-Rita-Das-Smart-Interview-Assistant/internal/domain"
	"github.com/rddesigner/GoogleAI-Rita-Das-Smart-Interview-Assistant/internal/observability"
)

// Extractor implements domain.ResumeExtractor over PDF bytes. It keeps no
// state: the result is a pure function of the input.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractText opens the PDF, walks every page in order, and joins the text
// runs of a page with single spaces and the pages with a blank line. A
// non-PDF or corrupt input fails with domain.ErrInvalidFormat.
func (e *Extractor) ExtractText(ctx context.Context, fileBytes []byte) (text string, err error) {
	// The pdf library panics on some malformed inputs instead of returning
	// an error; treat those as format failures too.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", domain.ErrInvalidFormat, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(fileBytes), int64(len(fileBytes)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidFormat, err)
	}

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, joinRuns(page.Content().Text))
	}

	observability.LoggerFromContext(ctx).Info("resume text extracted",
		"pages", len(pages), "bytes", len(fileBytes))

	return joinPages(pages), nil
}

// joinRuns concatenates the text runs of one page with single spaces.
func joinRuns(runs []pdf.Text) string {
	parts := make([]string, 0, len(runs))
	for _, r := range runs {
		s := strings.TrimSpace(r.S)
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// joinPages separates page texts with a blank line, in page order.
func joinPages(pages []string) string {
	return strings.Join(pages, "\n\n")
}
