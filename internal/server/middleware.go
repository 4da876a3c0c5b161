package server

import (
	"time"

	"league-auction/services/auction/helpers"
	"league-auction/utils"

	"github.com/gin-gonic/gin"
)

// RequestLoggerMiddleware logs incoming requests with timing
func RequestLoggerMiddleware(c *gin.Context) {
	start := time.Now()

	c.Next() // process request

	fields := map[string]any{
		"method":  c.Request.Method,
		"path":    c.FullPath(),
		"status":  c.Writer.Status(),
		"latency": time.Since(start).String(),
	}
	if caller := helpers.CallerID(c); caller != "" {
		fields["caller_id"] = caller
	}
	if c.FullPath() == "" {
		fields["path"] = c.Request.URL.Path
	}
	utils.Info("HTTP Request", fields)
}
