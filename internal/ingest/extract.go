package ingest

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gonfva/docxlib"
	"github.com/ledongthuc/pdf"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Format is a supported resume document format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatTXT  Format = "txt"
)

// FormatOf maps a filename to its document format by extension, ignoring case.
func FormatOf(filename string) (Format, bool) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	switch Format(ext) {
	case FormatPDF, FormatDOCX, FormatTXT:
		return Format(ext), true
	default:
		return "", false
	}
}

// Extractor turns raw document bytes into plain text.
type Extractor interface {
	Extract(data []byte) (string, error)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(data []byte) (string, error)

func (f ExtractorFunc) Extract(data []byte) (string, error) {
	return f(data)
}

// PDFExtractor reads the plain text of every page.
type PDFExtractor struct{}

func (PDFExtractor) Extract(data []byte) (text string, err error) {
	// The pdf reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	total := reader.NumPage()
	pages := make([]string, 0, total)
	for pageIndex := 1; pageIndex <= total; pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if pageText = strings.TrimSpace(pageText); pageText != "" {
			pages = append(pages, pageText)
		}
	}

	return strings.Join(pages, " "), nil
}

// DOCXExtractor reads runs and hyperlink text from every paragraph.
type DOCXExtractor struct{}

func (DOCXExtractor) Extract(data []byte) (string, error) {
	doc, err := docxlib.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	paragraphs := make([]string, 0)
	for _, paragraph := range doc.Paragraphs() {
		var builder strings.Builder
		for _, child := range paragraph.Children() {
			if child.Run != nil && child.Run.Text != nil {
				builder.WriteString(child.Run.Text.Text)
			}
			if child.Link != nil && child.Link.Run.Text != nil {
				builder.WriteString(child.Link.Run.Text.Text)
			}
		}
		if text := strings.TrimSpace(builder.String()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	}

	return strings.Join(paragraphs, " "), nil
}

// TXTExtractor decodes UTF-8 text. A byte order mark switches to UTF-16 and
// invalid sequences become the replacement character.
type TXTExtractor struct{}

func (TXTExtractor) Extract(data []byte) (string, error) {
	decoded, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
	if err != nil {
		return "", err
	}
	return strings.ToValidUTF8(string(decoded), "\uFFFD"), nil
}

// DefaultExtractors returns the built-in extractor for every supported format.
func DefaultExtractors() map[Format]Extractor {
	return map[Format]Extractor{
		FormatPDF:  PDFExtractor{},
		FormatDOCX: DOCXExtractor{},
		FormatTXT:  TXTExtractor{},
	}
}

// ParseErrorText is the sentinel text stored for a document that failed extraction.
func ParseErrorText(format Format, err error) string {
	return fmt.Sprintf("ERROR_%s_PARSE: %v", strings.ToUpper(string(format)), err)
}

// IsParseError reports whether text is an extraction failure sentinel.
func IsParseError(text string) bool {
	return strings.HasPrefix(text, "ERROR_") && strings.Contains(text, "_PARSE: ")
}
