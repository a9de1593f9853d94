package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	apperrors "github.com/tafa1618/Copilot-Process/internal/errors"
)

// RequestGuard rejects requests whose envelope is wrong before handlers
// read them: missing or unexpected content type, oversized bodies.
type RequestGuard struct {
	errorHandler *apperrors.ErrorHandler
	logger       *slog.Logger
	maxBodySize  int64
}

// NewRequestGuard creates a guard. maxBodySize <= 0 disables the size cap.
func NewRequestGuard(errorHandler *apperrors.ErrorHandler, maxBodySize int64, logger *slog.Logger) *RequestGuard {
	if logger == nil {
		logger = slog.Default()
	}
	if errorHandler == nil {
		errorHandler = apperrors.NewErrorHandler(logger, false)
	}
	return &RequestGuard{
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("component", "request_guard")),
		maxBodySize:  maxBodySize,
	}
}

// MaxBodySize refuses declared oversize bodies up front and caps the rest
// with http.MaxBytesReader so the handler sees *http.MaxBytesError.
func (g *RequestGuard) MaxBodySize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.maxBodySize <= 0 || r.Body == nil {
			next.ServeHTTP(w, r)
			return
		}
		if r.ContentLength > g.maxBodySize {
			g.logger.WarnContext(r.Context(), "request body too large",
				slog.Int64("size", r.ContentLength),
				slog.Int64("limit", g.maxBodySize))
			g.errorHandler.HandleError(w, r, apperrors.PayloadTooLarge(g.maxBodySize))
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, g.maxBodySize)
		next.ServeHTTP(w, r)
	})
}

// ContentTypeValidator ensures requests that carry a body use one of the
// allowed media types.
func (g *RequestGuard) ContentTypeValidator(contentTypes ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodDelete || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			contentType := r.Header.Get("Content-Type")
			if contentType == "" {
				g.errorHandler.HandleError(w, r, apperrors.ErrMissingContentType)
				return
			}

			for _, allowed := range contentTypes {
				if strings.HasPrefix(strings.ToLower(contentType), allowed) {
					next.ServeHTTP(w, r)
					return
				}
			}

			g.errorHandler.HandleError(w, r, apperrors.UnsupportedMediaType(contentType, contentTypes))
		})
	}
}
