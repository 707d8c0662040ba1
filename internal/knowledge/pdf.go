package knowledge

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"voxlit/internal/util"

	"github.com/ledongthuc/pdf"
)

// ExtractPDFText returns the sanitized plain text of a PDF held in memory.
func ExtractPDFText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	return plainText(r)
}

// ExtractPDFFile is ExtractPDFText for a file on disk.
func ExtractPDFFile(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()
	return plainText(r)
}

func plainText(r *pdf.Reader) (string, error) {
	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	buf := new(strings.Builder)
	if _, err := io.Copy(buf, reader); err != nil {
		return "", fmt.Errorf("read extracted text: %w", err)
	}
	text := util.SanitizeText(buf.String())
	if text == "" {
		return "", util.ErrNoExtractableText
	}
	return text, nil
}
