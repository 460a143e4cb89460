package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"

	"github.com/frahmantamala/expense-tracker/internal"
	"github.com/frahmantamala/expense-tracker/internal/transport"
)

// invalidMessageExtension names the per-operation message used for 400s.
const invalidMessageExtension = "x-invalid-message"

// LoadOpenAPI parses and validates an OpenAPI 3 document.
func LoadOpenAPI(data []byte) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}
	return doc, nil
}

// RequestValidator checks query, path and JSON body parameters against the
// document before the handler runs. Routes the document does not describe
// pass through. Multipart bodies are left to the handler.
func RequestValidator(doc *openapi3.T, logger *slog.Logger) (func(http.Handler) http.Handler, error) {
	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("build openapi router: %w", err)
	}
	base := transport.NewBaseHandler(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, pathParams, err := router.FindRoute(r)
			if err != nil {
				if !errors.Is(err, routers.ErrPathNotFound) && !errors.Is(err, routers.ErrMethodNotAllowed) {
					logger.Debug("openapi route lookup failed", "path", r.URL.Path, "error", err)
				}
				next.ServeHTTP(w, r)
				return
			}

			input := &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: pathParams,
				Route:      route,
				Options: &openapi3filter.Options{
					ExcludeRequestBody: !isJSON(r),
					AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
				},
			}
			if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
				base.WriteAppError(w, validationFailure(route.Operation, err))
				return
			}

			next.ServeHTTP(w, r)
		})
	}, nil
}

func isJSON(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		// no content type: let the body rule (required or not) decide
		return r.Header.Get("Content-Type") == ""
	}
	return mediaType == "application/json"
}

// validationFailure picks the message of the failing parameter, then the
// operation's, then a generic one.
func validationFailure(op *openapi3.Operation, err error) *internal.AppError {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return internal.ErrBodyTooLarge
	}

	message := "Invalid request"
	if op != nil {
		if m := invalidMessage(op.Extensions); m != "" {
			message = m
		}
	}

	field := ""
	var reqErr *openapi3filter.RequestError
	if errors.As(err, &reqErr) && reqErr.Parameter != nil {
		field = reqErr.Parameter.Name
		if m := invalidMessage(reqErr.Parameter.Extensions); m != "" {
			message = m
		}
	}
	var schemaErr *openapi3.SchemaError
	if errors.As(err, &schemaErr) && field == "" {
		field = strings.Join(schemaErr.JSONPointer(), ".")
	}

	return internal.NewValidationFieldsError(message, []internal.ValidationError{
		{Field: field, Message: reasonOf(err), Code: string(internal.ErrCodeValidationFailed)},
	})
}

func invalidMessage(extensions map[string]any) string {
	m, _ := extensions[invalidMessageExtension].(string)
	return m
}

func reasonOf(err error) string {
	var schemaErr *openapi3.SchemaError
	if errors.As(err, &schemaErr) && schemaErr.Reason != "" {
		return schemaErr.Reason
	}
	var reqErr *openapi3filter.RequestError
	if errors.As(err, &reqErr) && reqErr.Reason != "" {
		return reqErr.Reason
	}
	return err.Error()
}
