package reviews

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"cv-reviewer/internal/extract"
	"cv-reviewer/internal/shared/util"
)

// Stable error codes surfaced in the X-Error-Code header and request logs.
const (
	CodeFileRequired      = "file_required"
	CodeFileTooLarge      = "file_too_large"
	CodeInvalidRequest    = "invalid_request"
	CodeUnsupportedFormat = "unsupported_format"
	CodeExtractionFailed  = "extraction_failed"
	CodeNoTextFound       = "no_text_found"
	CodeReviewFailed      = "review_failed"
	CodeInternal          = "internal_error"
)

const (
	msgUnsupportedFormat = "Unsupported file format. Please upload a PDF or DOCX file."
	msgNoTextFound       = "Could not extract text from the uploaded file."
	msgReviewFailed      = "Error generating CV review. Please try again later."
	msgInternal          = "Internal server error"
)

// Error is a failed review request as seen at the HTTP boundary.
type Error struct {
	Code    string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Err.Error()
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func errFileRequired() *Error {
	return &Error{Code: CodeFileRequired, Status: http.StatusBadRequest, Message: "A file upload is required in the 'file' form field."}
}

func errFileTooLarge(limit int64) *Error {
	return &Error{
		Code:    CodeFileTooLarge,
		Status:  http.StatusRequestEntityTooLarge,
		Message: fmt.Sprintf("File too large. The maximum upload size is %d bytes.", limit),
	}
}

func errInvalidRequest(err error) *Error {
	return &Error{Code: CodeInvalidRequest, Status: http.StatusBadRequest, Message: "Invalid request body. Expected JSON with a 'cv_text' field.", Err: err}
}

func errUnsupportedFormat(err error) *Error {
	return &Error{Code: CodeUnsupportedFormat, Status: http.StatusBadRequest, Message: msgUnsupportedFormat, Err: err}
}

func errExtractionFailed(err *extract.Error) *Error {
	return &Error{
		Code:    CodeExtractionFailed,
		Status:  http.StatusBadRequest,
		Message: fmt.Sprintf("Error extracting text from %s: %s", strings.ToUpper(string(err.Format)), util.TruncateError(err.Err)),
		Err:     err,
	}
}

func errNoTextFound() *Error {
	return &Error{Code: CodeNoTextFound, Status: http.StatusBadRequest, Message: msgNoTextFound}
}

func errReviewFailed(err error) *Error {
	return &Error{Code: CodeReviewFailed, Status: http.StatusInternalServerError, Message: msgReviewFailed, Err: err}
}

func errInternal(err error) *Error {
	return &Error{Code: CodeInternal, Status: http.StatusInternalServerError, Message: msgInternal, Err: err}
}

// asError maps any error to a boundary Error; unknown errors become
// internal_error.
func asError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return errInternal(err)
}
