// Package reviews sequences upload validation, text extraction and review
// generation for one request, and exposes it over HTTP.
package reviews

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"cv-reviewer/internal/extract"
	"cv-reviewer/internal/review"
	"cv-reviewer/internal/shared/telemetry"
)

// Stage is a step of a review request.
type Stage string

const (
	StageReceived  Stage = "received"
	StageValidated Stage = "validated"
	StageExtracted Stage = "extracted"
	StageReviewed  Stage = "reviewed"
	StageResponded Stage = "responded"
	StageErrored   Stage = "errored"
)

// Trail records the stages a request passed through.
type Trail []Stage

func (t Trail) String() string {
	parts := make([]string, len(t))
	for i, s := range t {
		parts[i] = string(s)
	}
	return strings.Join(parts, "->")
}

// Extractor turns document bytes into plain text.
type Extractor interface {
	Extract(ctx context.Context, data []byte, format extract.Format) (string, error)
}

// Generator produces a validated review from CV text.
type Generator interface {
	Generate(ctx context.Context, text string) (review.Review, error)
}

// Upload is a file received from a caller. It lives for one request.
type Upload struct {
	FileName string
	Content  []byte
}

// Outcome is the result of a review request. Trail is set on failure too.
type Outcome struct {
	Review review.Review
	Trail  Trail
}

// Service runs the review pipeline.
type Service struct {
	extractor Extractor
	generator Generator
}

// NewService constructs a Service.
func NewService(extractor Extractor, generator Generator) *Service {
	return &Service{extractor: extractor, generator: generator}
}

// ReviewFile validates the file extension, extracts text and generates a
// review. Errors are always *Error.
func (s *Service) ReviewFile(ctx context.Context, up Upload) (Outcome, error) {
	trail := Trail{StageReceived}

	format, err := extract.FormatForFile(up.FileName)
	if err != nil {
		return Outcome{Trail: append(trail, StageErrored)}, errUnsupportedFormat(err)
	}
	trail = append(trail, StageValidated)

	text, err := s.extractor.Extract(ctx, up.Content, format)
	if err != nil {
		var xerr *extract.Error
		if errors.As(err, &xerr) {
			return Outcome{Trail: append(trail, StageErrored)}, errExtractionFailed(xerr)
		}
		return Outcome{Trail: append(trail, StageErrored)}, errInternal(err)
	}
	if strings.TrimSpace(text) == "" {
		return Outcome{Trail: append(trail, StageErrored)}, errNoTextFound()
	}
	telemetry.Info("review.text_extracted", map[string]any{
		"request_id": telemetry.RequestID(ctx),
		"format":     string(format),
		"bytes":      len(up.Content),
		"chars":      utf8.RuneCountInString(text),
	})
	trail = append(trail, StageExtracted)

	return s.generate(ctx, text, trail)
}

// ReviewText generates a review for text supplied directly.
func (s *Service) ReviewText(ctx context.Context, text string) (Outcome, error) {
	trail := Trail{StageReceived}
	if strings.TrimSpace(text) == "" {
		return Outcome{Trail: append(trail, StageErrored)}, errNoTextFound()
	}
	return s.generate(ctx, text, trail)
}

func (s *Service) generate(ctx context.Context, text string, trail Trail) (Outcome, error) {
	r, err := s.generator.Generate(ctx, text)
	if err != nil {
		return Outcome{Trail: append(trail, StageErrored)}, errReviewFailed(err)
	}
	return Outcome{Review: r, Trail: append(trail, StageReviewed)}, nil
}
