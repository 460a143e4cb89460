package middleware

import (
	"net/http"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/frahmantamala/expense-tracker/internal"
	"github.com/frahmantamala/expense-tracker/internal/transport"
	"github.com/frahmantamala/expense-tracker/pkg/logger"
)

// BodyLimit caps request bodies at maxBytes and refuses a declared
// Content-Length above it without reading. It has to run before anything that
// buffers the body. A non-positive maxBytes disables the cap.
func BodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if maxBytes <= 0 {
			return next
		}
		capped := chiMiddleware.RequestSize(maxBytes)(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				transport.NewBaseHandler(logger.From(r.Context())).WriteAppError(w, internal.ErrBodyTooLarge)
				return
			}
			capped.ServeHTTP(w, r)
		})
	}
}
