package reviews

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"cv-reviewer/internal/review"
	"cv-reviewer/internal/reviewer"
	"cv-reviewer/internal/shared/metrics"
	"cv-reviewer/internal/shared/server/respond"
	"cv-reviewer/internal/shared/telemetry"
	"cv-reviewer/internal/shared/util"
)

// multipartSlack covers form boundaries and headers around the file part.
const multipartSlack = 1 << 20

// Handler exposes the review pipeline over HTTP.
type Handler struct {
	svc            *Service
	maxUploadBytes int64
}

// NewHandler constructs a Handler. Uploads larger than maxUploadBytes are
// rejected with 413.
func NewHandler(svc *Service, maxUploadBytes int64) *Handler {
	return &Handler{svc: svc, maxUploadBytes: maxUploadBytes}
}

// RegisterRoutes mounts the review endpoints on rg.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/file", h.reviewFile)
	rg.POST("/text", h.reviewText)
}

type textRequest struct {
	CVText *string `json:"cv_text"`
}

func (h *Handler) reviewFile(c *gin.Context) {
	start := time.Now()
	metrics.IncReviewRequests()
	received := Trail{StageReceived, StageErrored}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartSlack)
	fh, err := c.FormFile("file")
	if err != nil {
		if isTooLarge(err) {
			h.finish(c, start, Outcome{Trail: received}, errFileTooLarge(h.maxUploadBytes))
			return
		}
		h.finish(c, start, Outcome{Trail: received}, errFileRequired())
		return
	}
	c.Set("fileName", util.DisplayFileName(fh.Filename))
	c.Set("fileSize", fh.Size)
	if fh.Size > h.maxUploadBytes {
		h.finish(c, start, Outcome{Trail: received}, errFileTooLarge(h.maxUploadBytes))
		return
	}

	f, err := fh.Open()
	if err != nil {
		h.finish(c, start, Outcome{Trail: received}, errInternal(err))
		return
	}
	data, err := io.ReadAll(f)
	_ = f.Close()
	if err != nil {
		h.finish(c, start, Outcome{Trail: received}, errInternal(err))
		return
	}
	telemetry.Info("review.upload_received", map[string]any{
		"request_id": c.GetString("requestId"),
		"file_name":  util.DisplayFileName(fh.Filename),
		"bytes":      len(data),
		"sha256":     util.ContentHash(data),
	})

	out, err := h.svc.ReviewFile(c.Request.Context(), Upload{FileName: fh.Filename, Content: data})
	h.finish(c, start, out, err)
}

func (h *Handler) reviewText(c *gin.Context) {
	start := time.Now()
	metrics.IncReviewRequests()
	received := Trail{StageReceived, StageErrored}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if isTooLarge(err) {
			h.finish(c, start, Outcome{Trail: received}, errFileTooLarge(h.maxUploadBytes))
			return
		}
		h.finish(c, start, Outcome{Trail: received}, errInvalidRequest(err))
		return
	}
	if req.CVText == nil {
		h.finish(c, start, Outcome{Trail: received}, errInvalidRequest(errors.New("cv_text is required")))
		return
	}

	out, err := h.svc.ReviewText(c.Request.Context(), *req.CVText)
	h.finish(c, start, out, err)
}

func (h *Handler) finish(c *gin.Context, start time.Time, out Outcome, err error) {
	metrics.ObserveReviewDurationMs(float64(time.Since(start).Milliseconds()))

	if err != nil {
		rerr := asError(err)
		c.Set("statusTransition", out.Trail.String())
		metrics.IncReviewFailed(rerr.Code)
		if rerr.Status >= http.StatusInternalServerError {
			fields := map[string]any{
				"request_id": c.GetString("requestId"),
				"code":       rerr.Code,
				"error":      util.TruncateError(rerr.Err),
			}
			var genErr *reviewer.GenerationError
			if errors.As(err, &genErr) {
				fields["kind"] = string(genErr.Kind)
			}
			telemetry.Error("review.failed", fields)
		}
		respond.Error(c, rerr.Status, rerr.Code, rerr.Message)
		return
	}

	out.Trail = append(out.Trail, StageResponded)
	c.Set("statusTransition", out.Trail.String())
	metrics.IncReviewCompleted()
	respond.OK(c, review.Envelope{Review: out.Review})
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return true
	}
	return strings.Contains(err.Error(), "request body too large")
}
