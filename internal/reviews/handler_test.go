package reviews

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"cv-reviewer/internal/extract"
	"cv-reviewer/internal/extract/extracttest"
	"cv-reviewer/internal/review"
	"cv-reviewer/internal/reviewer"
	"cv-reviewer/internal/shared/server/respond"
)

var sampleReview = review.Review{
	OverallStructure:       review.ScoredCategory{Score: 80, Reasoning: "Clear sections"},
	ContentQuality:         review.ScoredCategory{Score: 70, Reasoning: "Some vague bullets"},
	SkillsPresentation:     review.ScoredCategory{Score: 75, Reasoning: "Skills listed"},
	ExperienceHighlights:   review.ScoredCategory{Score: 65, Reasoning: "Few metrics"},
	OverallScore:           review.ScoredCategory{Score: 72, Reasoning: "Average of categories"},
	ImprovementSuggestions: []string{"Quantify achievements"},
}

type fakeGenerator struct {
	calls int
	texts []string
	err   error
}

func (f *fakeGenerator) Generate(ctx context.Context, text string) (review.Review, error) {
	f.calls++
	f.texts = append(f.texts, text)
	if f.err != nil {
		return review.Review{}, f.err
	}
	return sampleReview, nil
}

type countingExtractor struct {
	calls int
	next  Extractor
}

func (c *countingExtractor) Extract(ctx context.Context, data []byte, format extract.Format) (string, error) {
	c.calls++
	return c.next.Extract(ctx, data, format)
}

func newTestRouter(gen Generator, ext Extractor, maxUpload int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(NewService(ext, gen), maxUpload).RegisterRoutes(r.Group("/review"))
	return r
}

func uploadRequest(t *testing.T, fileName string, content []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/review/file", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func decodeDetail(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var body respond.ErrorResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, resp.Body.String())
	}
	return body.Detail
}

func TestReviewFileReturnsEnvelope(t *testing.T) {
	gen := &fakeGenerator{}
	router := newTestRouter(gen, extract.NewPool(2), 10<<20)

	for _, name := range []string{"cv.pdf", "CV.PDF", "cv.Pdf"} {
		t.Run(name, func(t *testing.T) {
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, uploadRequest(t, name, extracttest.PDF("John Doe, Software Engineer, 5 years Python")))

			if resp.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
			}
			var env review.Envelope
			if err := json.Unmarshal(resp.Body.Bytes(), &env); err != nil {
				t.Fatalf("decode envelope: %v", err)
			}
			if env.Review.OverallScore != sampleReview.OverallScore || len(env.Review.ImprovementSuggestions) != 1 {
				t.Fatalf("unexpected review: %+v", env.Review)
			}
		})
	}
	if !strings.Contains(gen.texts[0], "John Doe, Software Engineer, 5 years Python") {
		t.Fatalf("generator did not receive the extracted text: %q", gen.texts[0])
	}
}

func TestReviewFileDOCX(t *testing.T) {
	gen := &fakeGenerator{}
	router := newTestRouter(gen, extract.NewPool(1), 10<<20)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, uploadRequest(t, "cv.docx", extracttest.DOCX("Jane Roe", "Data Scientist")))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if gen.calls != 1 || gen.texts[0] != "Jane Roe\nData Scientist\n" {
		t.Fatalf("unexpected generator input: %q", gen.texts)
	}
}

func TestReviewFileRejectsUnsupportedFormat(t *testing.T) {
	for _, name := range []string{"resume.txt", "resume", "resume.doc"} {
		t.Run(name, func(t *testing.T) {
			gen := &fakeGenerator{}
			ext := &countingExtractor{next: extract.NewPool(1)}
			router := newTestRouter(gen, ext, 10<<20)

			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, uploadRequest(t, name, []byte("plain text cv")))

			if resp.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", resp.Code)
			}
			if detail := decodeDetail(t, resp); !strings.Contains(detail, "Unsupported file format") {
				t.Fatalf("unexpected detail %q", detail)
			}
			if resp.Header().Get(respond.ErrorCodeHeader) != CodeUnsupportedFormat {
				t.Fatalf("unexpected error code %q", resp.Header().Get(respond.ErrorCodeHeader))
			}
			if ext.calls != 0 || gen.calls != 0 {
				t.Fatalf("expected no extraction or generation, got %d/%d", ext.calls, gen.calls)
			}
		})
	}
}

func TestReviewFileCorruptedDocument(t *testing.T) {
	cases := map[string][]byte{
		"broken.pdf":  []byte("this is not a pdf at all"),
		"broken.docx": []byte("PK\x03\x04 garbage"),
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			gen := &fakeGenerator{}
			router := newTestRouter(gen, extract.NewPool(1), 10<<20)

			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, uploadRequest(t, name, content))

			if resp.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", resp.Code, resp.Body.String())
			}
			if detail := decodeDetail(t, resp); !strings.HasPrefix(detail, "Error extracting text from") {
				t.Fatalf("unexpected detail %q", detail)
			}
			if gen.calls != 0 {
				t.Fatalf("generator must not be called")
			}
		})
	}
}

func TestReviewFileNoText(t *testing.T) {
	gen := &fakeGenerator{}
	router := newTestRouter(gen, extract.NewPool(1), 10<<20)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, uploadRequest(t, "empty.docx", extracttest.DOCX("   ", "")))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if detail := decodeDetail(t, resp); detail != msgNoTextFound {
		t.Fatalf("unexpected detail %q", detail)
	}
	if gen.calls != 0 {
		t.Fatalf("generator must not be called")
	}
}

func TestReviewFileGenerationFailureIsGeneric(t *testing.T) {
	gen := &fakeGenerator{err: &reviewer.GenerationError{Kind: reviewer.KindUpstreamTimeout, Err: context.DeadlineExceeded}}
	router := newTestRouter(gen, extract.NewPool(1), 10<<20)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, uploadRequest(t, "cv.pdf", extracttest.PDF("Some CV text")))

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
	if detail := decodeDetail(t, resp); detail != msgReviewFailed {
		t.Fatalf("unexpected detail %q", detail)
	}
	if strings.Contains(resp.Body.String(), "score") {
		t.Fatalf("error body must not contain review data: %s", resp.Body.String())
	}
}

func TestReviewFileRequiresFile(t *testing.T) {
	router := newTestRouter(&fakeGenerator{}, extract.NewPool(1), 10<<20)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	_ = writer.WriteField("other", "value")
	_ = writer.Close()
	req := httptest.NewRequest(http.MethodPost, "/review/file", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if resp.Header().Get(respond.ErrorCodeHeader) != CodeFileRequired {
		t.Fatalf("unexpected error code %q", resp.Header().Get(respond.ErrorCodeHeader))
	}
}

func TestReviewFileTooLarge(t *testing.T) {
	gen := &fakeGenerator{}
	router := newTestRouter(gen, extract.NewPool(1), 1024)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, uploadRequest(t, "cv.pdf", bytes.Repeat([]byte("a"), 4096)))

	if resp.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", resp.Code)
	}
	if gen.calls != 0 {
		t.Fatalf("generator must not be called")
	}
}

func TestReviewText(t *testing.T) {
	gen := &fakeGenerator{}
	router := newTestRouter(gen, extract.NewPool(1), 10<<20)

	req := httptest.NewRequest(http.MethodPost, "/review/text", strings.NewReader(`{"cv_text": "Jane Roe, Data Scientist"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if gen.calls != 1 || gen.texts[0] != "Jane Roe, Data Scientist" {
		t.Fatalf("unexpected generator input: %q", gen.texts)
	}
}

func TestReviewTextValidation(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{name: "malformed json", body: `{"cv_text":`, status: http.StatusBadRequest, code: CodeInvalidRequest},
		{name: "missing field", body: `{}`, status: http.StatusBadRequest, code: CodeInvalidRequest},
		{name: "blank text", body: `{"cv_text": "   "}`, status: http.StatusBadRequest, code: CodeNoTextFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gen := &fakeGenerator{}
			router := newTestRouter(gen, extract.NewPool(1), 10<<20)

			req := httptest.NewRequest(http.MethodPost, "/review/text", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)

			if resp.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, resp.Code)
			}
			if got := resp.Header().Get(respond.ErrorCodeHeader); got != tc.code {
				t.Fatalf("expected code %s, got %s", tc.code, got)
			}
			if gen.calls != 0 {
				t.Fatalf("generator must not be called")
			}
		})
	}
}
