package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/2beens/coachai/internal/telemetry/metrics"
	"github.com/2beens/coachai/pkg"

	"github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
)

// PanicRecovery turns a handler panic into a 500 with the same JSON error body
// the handlers use. The panic is counted and sent to Sentry when it is set up.
func PanicRecovery(metricsManager *metrics.Manager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			defer func() {
				recovered := recover()
				if recovered == nil {
					return
				}
				if recovered == http.ErrAbortHandler {
					panic(recovered)
				}

				route := routeName(req)
				log.WithField("route", route).Errorf("http: panic serving %s: %v\n%s", req.URL.Path, recovered, debug.Stack())
				if metricsManager != nil {
					metricsManager.CounterHandleRequestPanic.Inc()
				}
				sentry.CurrentHub().Recover(fmt.Errorf("panic in route [%s]: %v", route, recovered))

				pkg.WriteJSON(w, map[string]string{"error": "internal error"}, http.StatusInternalServerError)
			}()

			next.ServeHTTP(w, req)
		})
	}
}
