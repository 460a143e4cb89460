package middleware

import (
	"net/http"

	"github.com/frahmantamala/expense-tracker/internal"
	"github.com/frahmantamala/expense-tracker/internal/transport"
	"github.com/frahmantamala/expense-tracker/pkg/logger"
)

// TokenVerifier resolves a bearer token to a user id.
type TokenVerifier interface {
	VerifyToken(token string) (int64, error)
}

// UserContext attaches the bearer token holder to the request when a token is
// present. Requests without a token pass through untouched; a token that does
// not verify is rejected.
func UserContext(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := transport.ExtractBearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := verifier.VerifyToken(token)
			if err != nil {
				transport.NewBaseHandler(logger.From(r.Context())).WriteError(w, err)
				return
			}

			ctx := internal.ContextWithUserID(r.Context(), userID)
			ctx = logger.With(ctx, "userID", userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser rejects requests that carry no verified token.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := internal.UserIDFromContext(r.Context()); !ok {
			transport.NewBaseHandler(logger.From(r.Context())).WriteAppError(w, internal.ErrTokenRequired)
			return
		}
		next.ServeHTTP(w, r)
	})
}
