package middleware

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/trace"
)

// RequestLogger writes one access line per request. Static assets are not
// logged. The route is the mux template, so profile pages group under
// /{slug}.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/static/") {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		metrics := httpsnoop.CaptureMetrics(next, w, r)
		duration := metrics.Duration
		if duration == 0 {
			duration = time.Since(start)
		}

		spanContext := trace.SpanFromContext(r.Context()).SpanContext()

		log.Printf(
			"request method=%s path=%s route=%s status=%d bytes=%d duration=%s trace_id=%s span_id=%s",
			r.Method,
			r.URL.Path,
			routeTemplate(r),
			metrics.Code,
			metrics.Written,
			duration,
			spanContext.TraceID().String(),
			spanContext.SpanID().String(),
		)
	})
}

func routeTemplate(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return "-"
	}
	template, err := route.GetPathTemplate()
	if err != nil {
		return "-"
	}
	return template
}
