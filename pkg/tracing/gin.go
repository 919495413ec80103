package tracing

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

var untracedPaths = map[string]bool{
	"/api/kafka/health": true,
	"/ready":            true,
	"/metrics":          true,
}

// RequestSpans opens a server span for each relay request. Publishes made
// while serving it carry the span into the record headers. Health and
// metrics scrapes are not traced.
func RequestSpans(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName, otelgin.WithFilter(traced))
}

func traced(r *http.Request) bool {
	return !untracedPaths[r.URL.Path]
}
