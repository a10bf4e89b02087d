package extractor

import (
	"bytes"
	"fmt"
	"unicode/utf8"
)

func extractPlainText(raw []byte) (string, error) {
	if bytes.ContainsRune(raw, 0) {
		return "", fmt.Errorf("binary content in text file")
	}
	if !utf8.Valid(raw) {
		raw = bytes.ToValidUTF8(raw, []byte("�"))
	}
	return string(raw), nil
}
