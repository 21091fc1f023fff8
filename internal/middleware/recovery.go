package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	apierrors "github.com/stwalsh4118/estimo/api/internal/errors"
	"github.com/stwalsh4118/estimo/api/internal/logger"
	"github.com/stwalsh4118/estimo/api/internal/metrics"
)

// Recovery turns a handler panic into a 500 carrying the standard error
// envelope, logs the stack and counts the panic by route.
func Recovery(log *logger.Logger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			// net/http uses this sentinel to abort a response silently
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			route := c.FullPath()
			if route == "" {
				route = unmatchedRoute
			}
			m.PanicsTotal.WithLabelValues(route).Inc()

			requestLogger := GetLogger(c)
			if requestLogger == nil {
				requestLogger = log.ForContext(c.Request.Context())
			}
			requestLogger.Error("Panic recovered", fmt.Errorf("panic: %v", rec), map[string]interface{}{
				"method": c.Request.Method,
				"route":  route,
				"stack":  string(debug.Stack()),
			})

			if c.Writer.Written() {
				c.Abort()
				return
			}
			apierrors.Respond(c, http.StatusInternalServerError, apierrors.ErrInternalServer,
				"An unexpected error occurred", nil)
		}()

		c.Next()
	}
}
