package middleware

import (
	"log/slog"
	"net/http"

	"slot-reservation-engine/internal/handler/httperr"
	"slot-reservation-engine/internal/pkg/errs"

	"github.com/gin-gonic/gin"
)

// ErrorHandler renders errors a handler attached without writing a body.
// Prepared public responses go out as is; a bare c.Error(err) is mapped
// like httperr.AbortWithDomainError, so a busy store still answers 503.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}
		for i := len(c.Errors) - 1; i >= 0; i-- {
			ginErr := c.Errors[i]
			if resp, ok := ginErr.Meta.(httperr.Response); ok && ginErr.IsType(gin.ErrorTypePublic) {
				c.JSON(resp.Status, resp)
				return
			}
		}
		if last := c.Errors.Last(); last != nil {
			resp := httperr.FromError(last.Err)
			if resp.Status >= http.StatusInternalServerError {
				slog.Error("unhandled request error", "path", c.FullPath(), "error", last.Err.Error())
			}
			c.JSON(resp.Status, resp)
			return
		}
		if status := c.Writer.Status(); status != http.StatusOK {
			c.Status(status)
			c.Writer.WriteHeaderNow()
			return
		}
		resp := httperr.NewResponse(http.StatusInternalServerError,
			errs.New("handler wrote no response"), "Internal server error")
		c.JSON(resp.Status, resp)
	}
}

func CustomRecovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("recovered from panic", "error", rec, "path", c.Request.URL.Path,
					"subject_id", extractSubject(c))

				resp := httperr.NewResponse(http.StatusInternalServerError,
					errs.Newf("panic: %v", rec), "Internal server error")
				c.AbortWithStatusJSON(resp.Status, resp)
			}
		}()
		c.Next()
	}
}
