package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	service "github.com/okian/waffles/internal/app"
	"github.com/okian/waffles/internal/domain/types"
	"github.com/okian/waffles/pkg/logger"
)

// uploadField is the multipart form field carrying the chat export.
const uploadField = "file"

// noUploadMessage is shown when the request carries no usable export.
const noUploadMessage = "Please upload a chat export file."

type uploadDeps interface {
	Process(ctx context.Context, r io.Reader) (types.ImportResult, error)
}

// UploadHandler handles chat export uploads.
type UploadHandler struct {
	deps     uploadDeps
	maxBytes int64
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(deps uploadDeps, maxBytes int64) *UploadHandler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &UploadHandler{deps: deps, maxBytes: maxBytes}
}

// HandleUpload handles POST /upload. The export is read either from the
// multipart field "file" or, for any other content type, from the raw body.
func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	const op = "api.upload"
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)

	body, closeBody, err := h.source(r)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	defer closeBody()

	res, err := h.deps.Process(ctx, body)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *UploadHandler) source(r *http.Request) (io.Reader, func(), error) {
	ct := r.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "multipart/form-data") {
		return r.Body, func() {}, nil
	}
	f, _, err := r.FormFile(uploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nil, err
		}
		return nil, nil, ErrNoUpload
	}
	return f, func() { _ = f.Close() }, nil
}

func (h *UploadHandler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "too_large", WrapKind(op, ErrTooLarge, err))
	case errors.Is(err, ErrNoUpload), errors.Is(err, service.ErrEmptyUpload):
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: "no_upload", Message: noUploadMessage})
	case errors.Is(err, service.ErrReadUpload):
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
	default:
		logger.Get().Error(r.Context(), "upload failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal", Wrap(op, err))
	}
}
