package service

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrNoText            = errors.New("no text extracted")
)

// ExtractService turns corpus source files into plain text.
// Supported formats: .pdf, .txt, .md
type ExtractService struct {
	logger *zap.Logger
}

func NewExtractService(logger *zap.Logger) *ExtractService {
	return &ExtractService{logger: logger}
}

// Supported reports whether path has an extension ExtractText handles.
func (s *ExtractService) Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf", ".txt", ".md":
		return true
	}
	return false
}

func (s *ExtractService) ExtractText(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))

	var (
		text string
		err  error
	)
	switch ext {
	case ".pdf":
		text, err = s.extractTextFromPDF(path)
	case ".txt", ".md":
		var data []byte
		data, err = os.ReadFile(path)
		text = sanitizeUTF8(string(data))
	default:
		return "", fmt.Errorf("%w: %s (supported: pdf, txt, md)", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: %s", ErrNoText, path)
	}

	s.logger.Debug("Text extracted",
		zap.String("file", path),
		zap.Int("text_length", len(text)),
	)
	return text, nil
}

// extractTextFromPDF reads the text layer of every page. Pages that fail are
// skipped.
func (s *ExtractService) extractTextFromPDF(pdfPath string) (string, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	var textBuilder strings.Builder
	for i := 0; i < doc.NumPage(); i++ {
		pageText, err := doc.Text(i)
		if err != nil {
			s.logger.Warn("Failed to extract text from page",
				zap.Int("page", i+1),
				zap.String("file", pdfPath),
				zap.Error(err),
			)
			continue
		}
		if pageText != "" {
			textBuilder.WriteString(pageText)
			textBuilder.WriteString("\n")
		}
	}

	s.logger.Info("PDF text extracted",
		zap.String("file", pdfPath),
		zap.Int("pages", doc.NumPage()),
	)
	return sanitizeUTF8(textBuilder.String()), nil
}
