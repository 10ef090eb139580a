package extractor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"unicode/utf8"
)

type TextExtractor struct{}

func NewTextExtractor() *TextExtractor {
	return &TextExtractor{}
}

func (e *TextExtractor) Extract(ctx context.Context, r io.Reader, _ string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("%w: read: %v", ErrExtractionFailed, err)
	}
	return e.ExtractBytes(ctx, data)
}

// ExtractBytes accepts UTF-8 only. A leading byte order mark is dropped.
func (e *TextExtractor) ExtractBytes(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: not valid UTF-8 text", ErrExtractionFailed)
	}
	return string(data), nil
}
