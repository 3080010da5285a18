package middleware

import (
	apiError "brand-builder/internal/errors"
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next() // Execute the handler first

		// detect any errors
		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		var apiErr *apiError.APIError
		// If it's a raw error we didn't wrap, treat as Internal
		if !errors.As(err, &apiErr) {
			apiErr = apiError.Internal(err)
		}

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", apiErr.Status),
			zap.String("message", apiErr.Message),
		}
		if apiErr.Internal != nil {
			fields = append(fields, zap.Error(apiErr.Internal))
		}
		if apiErr.Status >= 500 {
			logger.Error("request failed", fields...)
		} else {
			logger.Info("request rejected", fields...)
		}

		if c.Writer.Written() {
			return
		}
		c.AbortWithStatusJSON(apiErr.Status, apiErr)
	}
}
