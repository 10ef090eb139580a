package extractor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

func init() {
	// Keep pdfcpu from writing a config file into the user config dir.
	model.ConfigPath = "disable"
}

// PDFExtractor decodes page text with ledongthuc/pdf. Files whose xref that
// reader rejects are first rewritten by pdfcpu, which tolerates damaged
// cross-reference tables.
type PDFExtractor struct {
	conf *model.Configuration
}

func NewPDFExtractor() *PDFExtractor {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &PDFExtractor{conf: conf}
}

func (e *PDFExtractor) Extract(ctx context.Context, r io.Reader, _ string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("%w: read: %v", ErrExtractionFailed, err)
	}
	return e.ExtractBytes(ctx, data)
}

// ExtractBytes joins the text of all pages with a single space. Pages without
// text operators contribute an empty string.
func (e *PDFExtractor) ExtractBytes(ctx context.Context, data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w: pdf parser panic: %v", ErrExtractionFailed, r)
		}
	}()

	doc, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		repaired, rerr := e.rewrite(data)
		if rerr != nil {
			return "", fmt.Errorf("%w: %v", ErrExtractionFailed, rerr)
		}
		if doc, err = pdf.NewReader(bytes.NewReader(repaired), int64(len(repaired))); err != nil {
			return "", fmt.Errorf("%w: %v", ErrExtractionFailed, err)
		}
	}

	n := doc.NumPage()
	if n == 0 {
		return "", fmt.Errorf("%w: document has no pages", ErrExtractionFailed)
	}

	pages := make([]string, 0, n)
	for pageNr := 1; pageNr <= n; pageNr++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		p := doc.Page(pageNr)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, strings.TrimSpace(pageText(p)))
	}
	return strings.Join(pages, " "), nil
}

// rewrite parses data with pdfcpu in relaxed mode and serializes it again
// with a fresh cross-reference table.
func (e *PDFExtractor) rewrite(data []byte) ([]byte, error) {
	pdfCtx, err := api.ReadContext(bytes.NewReader(data), e.conf)
	if err != nil {
		return nil, err
	}
	if err := pdfCtx.EnsurePageCount(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := api.WriteContext(pdfCtx, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
