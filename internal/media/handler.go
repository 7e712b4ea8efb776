// Package media serves the onboarding video with HTTP byte-range support.
package media

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

const (
	contentType  = "video/mp4"
	cacheControl = "public, max-age=31536000, immutable"
	loadError    = "Error loading video"
)

type Handler struct {
	source Source
	logger *slog.Logger
}

func NewHandler(source Source, logger *slog.Logger) *Handler {
	return &Handler{source: source, logger: logger.With("component", "media")}
}

// ServeHTTP handles GET and HEAD /video.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	size, err := h.source.Size(ctx)
	if err != nil {
		h.fail(w, "stat video", err)
		return
	}

	start, end := int64(0), size-1
	status := http.StatusOK
	if header := r.Header.Get("Range"); header != "" {
		start, end, err = ParseRange(header, size)
		if errors.Is(err, ErrUnsatisfiable) {
			w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
			w.Header().Set("Accept-Ranges", "bytes")
			http.Error(w, http.StatusText(http.StatusRequestedRangeNotSatisfiable), http.StatusRequestedRangeNotSatisfiable)
			return
		}
		status = http.StatusPartialContent
	}
	length := end - start + 1

	var body io.ReadCloser
	if r.Method != http.MethodHead && length > 0 {
		body, err = h.source.ReadRange(ctx, start, end)
		if err != nil {
			h.fail(w, "read video", err)
			return
		}
		defer body.Close()
	}

	hdr := w.Header()
	hdr.Set("Content-Type", contentType)
	hdr.Set("Cache-Control", cacheControl)
	hdr.Set("Accept-Ranges", "bytes")
	hdr.Set("Content-Length", strconv.FormatInt(length, 10))
	if status == http.StatusPartialContent {
		hdr.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, size))
	}
	w.WriteHeader(status)

	if body == nil {
		return
	}
	// A long video outlives the server's WriteTimeout.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		h.logger.Warn("clear write deadline", "error", err)
	}
	if _, err := io.CopyN(w, body, length); err != nil {
		// headers are gone; the client sees a short body
		h.logger.Warn("stream video", "error", err)
	}
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op, "error", err)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	io.WriteString(w, loadError)
}
