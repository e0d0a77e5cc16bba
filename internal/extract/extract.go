// Package extract turns uploaded resume documents into plain text.
package extract

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

// Format is a supported resume document format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatDOC  Format = "doc"
	FormatText Format = "txt"
)

// ErrUnsupportedFormat is returned for uploads that are not pdf, docx, doc or txt.
var ErrUnsupportedFormat = errors.New("unsupported file format")

var byExtension = map[string]Format{
	".pdf":  FormatPDF,
	".docx": FormatDOCX,
	".doc":  FormatDOC,
	".txt":  FormatText,
}

var byContentType = map[string]Format{
	"application/pdf":    FormatPDF,
	"application/msword": FormatDOC,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": FormatDOCX,
	"text/plain": FormatText,
}

// DetectFormat resolves the format from the file name, falling back to the content type.
func DetectFormat(fileName, contentType string) (Format, error) {
	if ext := strings.ToLower(filepath.Ext(strings.TrimSpace(fileName))); ext != "" {
		if format, ok := byExtension[ext]; ok {
			return format, nil
		}
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	mediaType := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	if format, ok := byContentType[mediaType]; ok {
		return format, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, contentType)
}

// ContentType returns the canonical media type for f.
func (f Format) ContentType() string {
	for contentType, format := range byContentType {
		if format == f {
			return contentType
		}
	}
	return "application/octet-stream"
}

// Extractor extracts text from resume documents.
type Extractor struct{}

// New returns an Extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract returns the document text with runs of blank lines collapsed.
func (e *Extractor) Extract(data []byte, format Format) (text string, err error) {
	if len(data) == 0 {
		return "", errors.New("empty document")
	}

	// The PDF reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("extract %s: malformed document: %v", format, r)
		}
	}()

	switch format {
	case FormatPDF:
		text, err = extractPDF(data)
	case FormatDOCX, FormatDOC:
		text, err = extractDOCX(data)
	case FormatText:
		if !utf8.Valid(data) {
			return "", errors.New("text file is not valid UTF-8")
		}
		text = string(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", format, err)
	}

	return normalize(text), nil
}

func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func extractDOCX(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer doc.Close()

	return documentText(doc.Editable().GetContent())
}

// documentText keeps the character data of a WordprocessingML body,
// breaking lines at paragraphs and explicit breaks.
func documentText(raw string) (string, error) {
	decoder := xml.NewDecoder(strings.NewReader(raw))

	var b strings.Builder
	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("decode document.xml: %w", err)
		}

		switch t := token.(type) {
		case xml.CharData:
			b.Write(t)
		case xml.StartElement:
			switch t.Name.Local {
			case "tab":
				b.WriteByte('\t')
			case "br", "cr":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			if t.Name.Local == "p" {
				b.WriteByte('\n')
			}
		}
	}

	return b.String(), nil
}

func normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if strings.TrimSpace(line) == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}

	return strings.TrimSpace(strings.Join(out, "\n"))
}
