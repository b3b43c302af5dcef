package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/labflow-backend/internal/domain/user"
	"github.com/yungbote/labflow-backend/internal/platform/ctxutil"
	"github.com/yungbote/labflow-backend/internal/platform/logger"
)

// RequestLogger writes one line per request after the handler ran. Server
// errors carry the handler's private gin errors; client errors log at warn.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		ctx := c.Request.Context()
		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		kv := []interface{}{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"trace_id", ctxutil.TraceID(ctx),
		}
		if td := ctxutil.GetTraceData(ctx); td != nil {
			kv = append(kv, "request_id", td.RequestID)
		}
		if rd := ctxutil.GetRequestData(ctx); rd != nil {
			kv = append(kv, "user_id", rd.UserID.String(), "role", user.Role(rd.Role).String())
		}

		switch {
		case status >= 500:
			if errs := c.Errors.ByType(gin.ErrorTypePrivate); len(errs) > 0 {
				kv = append(kv, "error", errs.String())
			}
			log.Error("request failed", kv...)
		case status >= 400:
			log.Warn("request rejected", kv...)
		default:
			log.Info("request", kv...)
		}
	}
}
