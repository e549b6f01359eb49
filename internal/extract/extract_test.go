package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"cv-reviewer/internal/extract/extracttest"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "pdf", want: FormatPDF},
		{in: ".PDF", want: FormatPDF},
		{in: "Pdf", want: FormatPDF},
		{in: "docx", want: FormatDOCX},
		{in: ".DocX", want: FormatDOCX},
		{in: "txt", wantErr: true},
		{in: "doc", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedFormat) {
					t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("ParseFormat(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestFormatForFile(t *testing.T) {
	for _, name := range []string{"resume.txt", "resume", "resume.pdf.exe", ".bashrc."} {
		if _, err := FormatForFile(name); !errors.Is(err, ErrUnsupportedFormat) {
			t.Fatalf("FormatForFile(%q): expected unsupported, got %v", name, err)
		}
	}
	if f, err := FormatForFile("CV.Final.PDF"); err != nil || f != FormatPDF {
		t.Fatalf("expected pdf, got %q %v", f, err)
	}
}

func TestTextPDFSinglePage(t *testing.T) {
	const want = "John Doe, Software Engineer, 5 years Python"
	got, err := Text(extracttest.PDF(want), FormatPDF)
	if err != nil {
		t.Fatalf("extract pdf: %v", err)
	}
	if strings.TrimSpace(got) != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestTextPDFPagesInOrder(t *testing.T) {
	got, err := Text(extracttest.PDF("First page", "", "Third page"), FormatPDF)
	if err != nil {
		t.Fatalf("extract pdf: %v", err)
	}
	first := strings.Index(got, "First page")
	third := strings.Index(got, "Third page")
	if first < 0 || third < 0 || first > third {
		t.Fatalf("expected pages in order, got %q", got)
	}
}

func TestTextPDFWithoutTextIsEmpty(t *testing.T) {
	got, err := Text(extracttest.PDF(""), FormatPDF)
	if err != nil {
		t.Fatalf("expected no error for text-less pdf, got %v", err)
	}
	if strings.TrimSpace(got) != "" {
		t.Fatalf("expected empty text, got %q", got)
	}
}

func TestTextDOCXParagraphs(t *testing.T) {
	got, err := Text(extracttest.DOCX("Jane Roe", "Data Engineer", "Skills: Go, SQL & <Kafka>"), FormatDOCX)
	if err != nil {
		t.Fatalf("extract docx: %v", err)
	}
	want := "Jane Roe\nData Engineer\nSkills: Go, SQL & <Kafka>\n"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestTextDOCXWithoutParagraphsIsEmpty(t *testing.T) {
	got, err := Text(extracttest.DOCX(), FormatDOCX)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != "" {
		t.Fatalf("expected empty text, got %q", got)
	}
}

func TestTextDOCXRunsTabsAndTables(t *testing.T) {
	body := `<w:p><w:pPr><w:tabs><w:tab w:val="left" w:pos="720"/></w:tabs></w:pPr>` +
		`<w:r><w:t>Name:</w:t></w:r><w:r><w:tab/><w:t xml:space="preserve">Jane </w:t></w:r><w:r><w:t>Roe</w:t></w:r></w:p>` +
		`<w:tbl><w:tr><w:tc><w:p><w:r><w:t>2019</w:t><w:br/><w:t>Acme</w:t></w:r></w:p></w:tc></w:tr></w:tbl>`
	got, err := Text(extracttest.DOCXWithBody(body), FormatDOCX)
	if err != nil {
		t.Fatalf("extract docx: %v", err)
	}
	want := "Name:\tJane Roe\n2019\nAcme\n"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestTextMalformedPayloads(t *testing.T) {
	var zipWithoutDocument bytes.Buffer
	zw := zip.NewWriter(&zipWithoutDocument)
	w, _ := zw.Create("notes.txt")
	_, _ = w.Write([]byte("hello"))
	_ = zw.Close()

	validPDF := extracttest.PDF("truncated resume")

	tests := []struct {
		name   string
		data   []byte
		format Format
	}{
		{name: "empty pdf", data: nil, format: FormatPDF},
		{name: "garbage pdf", data: []byte("this is not a pdf at all, just some garbage bytes that go on for a while to pass size checks..........................................."), format: FormatPDF},
		{name: "pdf header only", data: []byte("%PDF-1.4\n%%EOF\n"), format: FormatPDF},
		{name: "truncated pdf", data: validPDF[:len(validPDF)/2], format: FormatPDF},
		{name: "docx bytes as pdf", data: extracttest.DOCX("hello"), format: FormatPDF},
		{name: "empty docx", data: nil, format: FormatDOCX},
		{name: "garbage docx", data: []byte("PK\x03\x04 not really a zip"), format: FormatDOCX},
		{name: "zip without document", data: zipWithoutDocument.Bytes(), format: FormatDOCX},
		{name: "pdf bytes as docx", data: validPDF, format: FormatDOCX},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := Text(tt.data, tt.format)
			var exErr *Error
			if !errors.As(err, &exErr) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if exErr.Format != tt.format {
				t.Fatalf("expected format %q, got %q", tt.format, exErr.Format)
			}
		})
	}
}

func TestTextDoesNotMutateInput(t *testing.T) {
	data := extracttest.PDF("immutable")
	before := append([]byte(nil), data...)
	if _, err := Text(data, FormatPDF); err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !bytes.Equal(before, data) {
		t.Fatal("input buffer was modified")
	}
}

func TestPoolRespectsCancellation(t *testing.T) {
	pool := NewPool(1)
	if err := pool.sem.Acquire(context.Background(), 1); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer pool.sem.Release(1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := pool.Extract(ctx, extracttest.PDF("queued"), FormatPDF)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded while waiting for a slot, got %v", err)
	}
}

func TestPoolExtracts(t *testing.T) {
	pool := NewPool(0)
	got, err := pool.Extract(context.Background(), extracttest.DOCX("pooled"), FormatDOCX)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if got != "pooled\n" {
		t.Fatalf("unexpected text %q", got)
	}
}

func writeZip(t *testing.T, write func(zw *zip.Writer)) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	write(zw)
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestDOCXRejectsOversizedDocumentPart(t *testing.T) {
	data := writeZip(t, func(zw *zip.Writer) {
		w, err := zw.Create("word/document.xml")
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		chunk := bytes.Repeat([]byte("a"), 1<<20)
		for written := 0; written <= MaxDocumentXMLBytes; written += len(chunk) {
			if _, err := w.Write(chunk); err != nil {
				t.Fatalf("write part: %v", err)
			}
		}
	})
	if len(data) > 1<<20 {
		t.Fatalf("fixture should compress well, got %d bytes", len(data))
	}

	_, err := Text(data, FormatDOCX)
	var exErr *Error
	if !errors.As(err, &exErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if !strings.Contains(err.Error(), "limit") {
		t.Fatalf("expected size limit error, got %v", err)
	}
}

func TestDOCXWithoutDocumentRelationships(t *testing.T) {
	data := writeZip(t, func(zw *zip.Writer) {
		w, err := zw.Create("word/document.xml")
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		_, _ = w.Write([]byte(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
			`<w:body><w:p><w:r><w:t>Jane Roe</w:t></w:r></w:p></w:body></w:document>`))
	})

	got, err := Text(data, FormatDOCX)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if got != "Jane Roe\n" {
		t.Fatalf("unexpected text %q", got)
	}
}
