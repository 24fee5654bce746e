package services

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/htmlindex"

	"rag-chatbot-platform/internal/errdefs"
	"rag-chatbot-platform/internal/logger"
)

// SupportedFileTypes lists the extensions the extractor accepts, without the
// leading dot.
var SupportedFileTypes = []string{"pdf", "txt", "md", "docx"}

// Extractor turns raw uploaded bytes into plain text keyed by file type.
type Extractor struct {
	detector *chardet.Detector
}

func NewExtractor() *Extractor {
	return &Extractor{detector: chardet.NewTextDetector()}
}

// Supported reports whether the given extension (without dot, any case) is
// extractable.
func (e *Extractor) Supported(fileType string) bool {
	ft := strings.ToLower(fileType)
	for _, t := range SupportedFileTypes {
		if t == ft {
			return true
		}
	}
	return false
}

// Extract dispatches on file type. Unknown types return ErrUnsupportedType;
// parse failures of a known type return ErrExtractionFailure.
func (e *Extractor) Extract(content []byte, fileType string) (string, error) {
	switch strings.ToLower(fileType) {
	case "pdf":
		return e.extractPDF(content)
	case "docx":
		return e.extractDOCX(content)
	case "txt", "md":
		return e.extractPlainText(content)
	default:
		return "", fmt.Errorf("file type %q: %w", fileType, errdefs.ErrUnsupportedType)
	}
}

func (e *Extractor) extractPDF(content []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %v: %w", err, errdefs.ErrExtractionFailure)
	}

	var sb strings.Builder
	pages := reader.NumPage()
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		fonts := make(map[string]*pdf.Font)
		text, err := page.GetPlainText(fonts)
		if err != nil {
			logger.Warn("Failed to extract PDF page", "page", i, "error", err)
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(text)
	}

	result := strings.TrimSpace(sb.String())
	if result == "" && pages > 0 {
		// Scanned or image-only PDFs yield no text but parse fine.
		return "", nil
	}
	return result, nil
}

func (e *Extractor) extractDOCX(content []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open docx archive: %v: %w", err, errdefs.ErrExtractionFailure)
	}

	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("open document.xml: %v: %w", err, errdefs.ErrExtractionFailure)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("read document.xml: %v: %w", err, errdefs.ErrExtractionFailure)
		}
		return parseDocumentXML(data)
	}
	return "", fmt.Errorf("docx has no word/document.xml: %w", errdefs.ErrExtractionFailure)
}

type documentXML struct {
	Body struct {
		Paragraphs []struct {
			Runs []struct {
				Text []struct {
					Content string `xml:",chardata"`
				} `xml:"t"`
			} `xml:"r"`
		} `xml:"p"`
	} `xml:"body"`
}

func parseDocumentXML(data []byte) (string, error) {
	var doc documentXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("parse document.xml: %v: %w", err, errdefs.ErrExtractionFailure)
	}

	var sb strings.Builder
	for i, para := range doc.Body.Paragraphs {
		if i > 0 {
			sb.WriteString("\n")
		}
		for _, run := range para.Runs {
			for _, text := range run.Text {
				sb.WriteString(text.Content)
			}
		}
	}
	return strings.TrimSpace(sb.String()), nil
}

// extractPlainText detects the encoding and decodes to UTF-8. When detection
// or decoding fails, bytes are kept with invalid sequences replaced so an
// odd legacy file never blocks ingestion.
func (e *Extractor) extractPlainText(content []byte) (string, error) {
	if utf8.Valid(content) {
		return strings.TrimSpace(string(content)), nil
	}

	if best, err := e.detector.DetectBest(content); err == nil {
		if enc, err := htmlindex.Get(strings.ToLower(best.Charset)); err == nil {
			if decoded, err := enc.NewDecoder().Bytes(content); err == nil {
				return strings.TrimSpace(string(decoded)), nil
			}
		}
		logger.Warn("Could not decode detected charset, falling back to lossy UTF-8",
			"charset", best.Charset)
	}

	return strings.TrimSpace(strings.ToValidUTF8(string(content), "�")), nil
}
