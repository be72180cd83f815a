package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"
	"time"

	"pastel24h/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrorHandler renders errors a handler attached with c.Error but did not
// answer itself. Domain errors keep their status and envelope; anything else
// becomes an opaque 500.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err

		var domain *apierror.Error
		if errors.As(err, &domain) && domain.Kind != apierror.KindInternal {
			c.AbortWithStatusJSON(domain.Kind.Status(), domain.Response())
			return
		}

		requestLog(c, log.Error()).
			Err(err).
			Msg("unhandled error")
		c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.New("Erro interno do servidor"))
	}
}

// Recovery turns a panic into a 500 and logs the stack server-side only.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				requestLog(c, log.Error()).
					Interface("panic", r).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.New("Erro interno do servidor"))
			}
		}()
		c.Next()
	}
}

// Logger writes one line per request. 5xx log as errors and 4xx as warnings
// so a rejected close or a locked entry edit stands out from normal traffic.
// Health checks only show at debug level.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		var ev *zerolog.Event
		switch {
		case status >= http.StatusInternalServerError:
			ev = log.Error()
		case status >= http.StatusBadRequest:
			ev = log.Warn()
		case c.Request.URL.Path == "/health":
			ev = log.Debug()
		default:
			ev = log.Info()
		}
		requestLog(c, ev).
			Str("query", c.Request.URL.RawQuery).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

// requestLog adds the fields every request line carries: the request id,
// the route and, once JWTAuth has run, who made the call.
func requestLog(c *gin.Context, ev *zerolog.Event) *zerolog.Event {
	ev = ev.
		Str("request_id", c.GetString(RequestIDKey)).
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path)
	if route := c.FullPath(); route != "" {
		ev = ev.Str("route", route)
	}
	if v, ok := c.Get(ClaimsKey); ok {
		if claims, ok := v.(*JWTClaims); ok {
			ev = ev.Str("user_id", claims.UserID).Str("role", claims.Role)
		}
	}
	return ev
}
