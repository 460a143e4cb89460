package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS allows the listed origins ("*" for any) to call the API from a browser.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Trace-ID"},
		ExposedHeaders:   []string{"X-Auth-Token", "X-Trace-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	})
}
