// Package extract turns uploaded PDF and DOCX bytes into plain text.
package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

// Format is a supported document type, named by its file extension.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

// ErrUnsupportedFormat is returned for extensions outside the allow-list.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Error reports bytes that could not be parsed as the declared format.
type Error struct {
	Format Format
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Format, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ParseFormat maps an extension such as "pdf", ".PDF" or "Docx" to a Format.
func ParseFormat(ext string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), ".")) {
	case string(FormatPDF):
		return FormatPDF, nil
	case string(FormatDOCX):
		return FormatDOCX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// FormatForFile derives the Format from a file name's final extension.
func FormatForFile(name string) (Format, error) {
	ext := filepath.Ext(strings.TrimSpace(name))
	if ext == "" {
		return "", fmt.Errorf("%w: no extension", ErrUnsupportedFormat)
	}
	return ParseFormat(ext)
}

// Text extracts plain text from data. A document that parses but holds no
// text yields "" and a nil error. The input slice is never modified.
func Text(data []byte, format Format) (string, error) {
	var (
		text string
		err  error
	)
	switch format {
	case FormatPDF:
		text, err = extractPDF(data)
	case FormatDOCX:
		text, err = extractDOCX(data)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return "", &Error{Format: format, Err: err}
	}
	return text, nil
}

// extractPDF concatenates the text layer of every page in page order.
// The pdf reader panics on some malformed inputs, so parsing is guarded.
func extractPDF(data []byte) (text string, err error) {
	if len(data) == 0 {
		return "", errors.New("empty pdf data")
	}
	defer func() {
		if rec := recover(); rec != nil {
			text = ""
			err = fmt.Errorf("malformed pdf: %v", rec)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		buf.WriteString(pageText(reader.Page(i)))
	}
	return buf.String(), nil
}

// pageText returns "" for pages without an extractable text layer.
func pageText(p pdf.Page) (text string) {
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()
	if p.V.IsNull() {
		return ""
	}
	s, err := p.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return s
}

// extractDOCX writes every paragraph's text followed by a newline, in
// document order. Paragraphs inside tables and text boxes are included.
func extractDOCX(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty docx data")
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	document, hasRels := findDocumentPart(zr)
	if document == nil {
		return "", errors.New("word/document.xml not found")
	}
	if document.UncompressedSize64 > MaxDocumentXMLBytes {
		return "", fmt.Errorf("word/document.xml expands to %d bytes, limit is %d", document.UncompressedSize64, MaxDocumentXMLBytes)
	}

	if !hasRels {
		// The docx package refuses files without document relationships,
		// which some generators omit.
		content, err := readPart(document)
		if err != nil {
			return "", err
		}
		return paragraphText(content)
	}

	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	defer doc.Close()

	return paragraphText(doc.Editable().GetContent())
}

// MaxDocumentXMLBytes caps the decompressed size of word/document.xml.
const MaxDocumentXMLBytes = 64 << 20

func findDocumentPart(zr *zip.Reader) (document *zip.File, hasRels bool) {
	for _, f := range zr.File {
		switch f.Name {
		case "word/document.xml":
			document = f
		case "word/_rels/document.xml.rels":
			hasRels = true
		}
	}
	return document, hasRels
}

// readPart reads a zip entry, never more than MaxDocumentXMLBytes.
func readPart(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	b, err := io.ReadAll(io.LimitReader(rc, MaxDocumentXMLBytes+1))
	if err != nil {
		return "", err
	}
	if len(b) > MaxDocumentXMLBytes {
		return "", fmt.Errorf("word/document.xml exceeds %d bytes", MaxDocumentXMLBytes)
	}
	return string(b), nil
}

// WordprocessingML namespaces, transitional and strict.
const (
	wordNS       = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	wordStrictNS = "http://purl.oclc.org/ooxml/wordprocessingml/main"
)

func paragraphText(documentXML string) (string, error) {
	decoder := xml.NewDecoder(strings.NewReader(documentXML))
	var (
		buf    strings.Builder
		inRun  int
		inText bool
	)
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if !isWordElement(t.Name) {
				continue
			}
			switch t.Name.Local {
			case "r":
				inRun++
			case "t":
				inText = inRun > 0
			case "tab":
				if inRun > 0 {
					buf.WriteByte('\t')
				}
			case "br", "cr":
				if inRun > 0 {
					buf.WriteByte('\n')
				}
			}
		case xml.EndElement:
			if !isWordElement(t.Name) {
				continue
			}
			switch t.Name.Local {
			case "r":
				inRun--
			case "t":
				inText = false
			case "p":
				buf.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				buf.Write(t)
			}
		}
	}
	return buf.String(), nil
}

func isWordElement(name xml.Name) bool {
	return name.Space == wordNS || name.Space == wordStrictNS
}
