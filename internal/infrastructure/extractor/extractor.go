package extractor

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/MeiZhiYying/classifyDoc/internal/core/ports"
)

// Extractor turns stored file bytes into classifier input text,
// dispatching on the file extension. Content is truncated to maxChars.
type Extractor struct {
	storage  ports.ObjectStorage
	maxChars int
}

func New(storage ports.ObjectStorage, maxChars int) *Extractor {
	if maxChars <= 0 {
		maxChars = 10000
	}
	return &Extractor{storage: storage, maxChars: maxChars}
}

func (e *Extractor) Extract(ctx context.Context, key string) (string, error) {
	rc, err := e.storage.Open(ctx, key)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", key, err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(io.LimitReader(rc, 32<<20))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}

	var text string
	switch strings.ToLower(path.Ext(key)) {
	case ".txt", ".md", ".log", ".csv", ".json", ".xml", ".html":
		text, err = extractPlainText(raw)
	case ".pdf":
		text, err = extractPDF(raw)
	case ".docx":
		text, err = extractDOCX(raw)
	case ".xlsx":
		text, err = extractXLSX(raw)
	default:
		return "", fmt.Errorf("unsupported file type %q", path.Ext(key))
	}
	if err != nil {
		return "", err
	}
	return e.truncate(text), nil
}

func (e *Extractor) truncate(text string) string {
	text = strings.TrimSpace(text)
	if len(text) <= e.maxChars {
		return text
	}
	cut := text[:e.maxChars]
	// Do not split a multi-byte rune at the cut point.
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut
}
