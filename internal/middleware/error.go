package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/logger"
)

// ErrorHandler logs the errors handlers attached with c.Error. The response
// itself has already been written by httputil.Error.
func ErrorHandler(log *logger.Logger) gin.HandlerFunc {
	log = log.With("http")
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		requestID := c.GetString(ContextRequestID)
		for _, e := range c.Errors {
			log.Error(e.Err, "Request error",
				"request_id", requestID,
				"code", int(errors.CodeOf(e.Err)),
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
			)
		}
	}
}
