package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
)

// extractPDFText pulls plain text out of a PDF document.
func extractPDFText(data []byte) (string, error) {
	pdfReader, err := model.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to read PDF: %w", err)
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return "", fmt.Errorf("failed to get page count: %w", err)
	}
	if numPages == 0 {
		return "", fmt.Errorf("PDF has no pages")
	}

	var builder strings.Builder
	extracted := false

	for i := 1; i <= numPages; i++ {
		page, err := pdfReader.GetPage(i)
		if err != nil {
			continue // Skip pages with errors
		}

		ex, err := extractor.New(page)
		if err != nil {
			continue
		}

		pageText, err := ex.ExtractText()
		if err != nil {
			continue
		}

		if pageText != "" {
			extracted = true
			builder.WriteString(pageText)
			builder.WriteString("\n")
		}
	}

	text := strings.TrimSpace(builder.String())
	if !extracted {
		return "", fmt.Errorf("no text could be extracted from any page of the PDF")
	}

	return text, nil
}
