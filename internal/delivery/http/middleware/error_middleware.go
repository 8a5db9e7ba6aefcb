package middleware

import (
	"errors"
	"net/http"

	"swiftjobs-backend/internal/delivery/http/response"
	"swiftjobs-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorHandler renders the last error a handler attached with c.Error.
// AppErrors keep their code and message; anything else becomes a generic 500.
func ErrorHandler(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			if appErr.Code >= http.StatusInternalServerError {
				log.Error("request failed",
					zap.String("request_id", c.GetString(response.RequestIDKey)),
					zap.String("kind", string(appErr.Kind)),
					zap.Error(err),
				)
			}
			response.Error(c, appErr.Code, appErr.Message, appErr.Kind)
			return
		}

		// never expose internal error details to clients
		log.Error("internal server error",
			zap.String("request_id", c.GetString(response.RequestIDKey)),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		response.Error(c, http.StatusInternalServerError, "An unexpected error occurred. Please try again later.", nil)
	}
}
