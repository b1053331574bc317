package extract

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

var (
	docxParagraphRegex = regexp.MustCompile(`</w:p>`)
	docxTagRegex       = regexp.MustCompile(`<[^>]+>`)
)

// extractDocxText pulls plain text out of a DOCX document.
func extractDocxText(data []byte) (string, error) {
	reader, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read DOCX: %w", err)
	}
	defer func() { _ = reader.Close() }()

	content := reader.Editable().GetContent()

	// Paragraph boundaries become newlines, remaining markup is stripped.
	content = docxParagraphRegex.ReplaceAllString(content, "\n")
	content = docxTagRegex.ReplaceAllString(content, "")

	text := strings.TrimSpace(content)
	if text == "" {
		return "", fmt.Errorf("no text could be extracted from the DOCX document")
	}

	return text, nil
}
