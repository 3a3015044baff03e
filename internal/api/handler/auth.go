package handler

import (
	"errors"
	"net/http"

	"urbandept/backend/internal/auth"
	"urbandept/backend/internal/metrics"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ServiceAuth gates every internal route behind a gateway service token issued
// for this department. Nothing downstream runs when verification fails.
func ServiceAuth(verifier *auth.Verifier, m *metrics.Collector, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("service_auth")

	return func(c *gin.Context) {
		token, err := auth.BearerToken(c.GetHeader("Authorization"))
		if err != nil {
			m.RecordAuthRejection("unauthenticated")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Service authentication required.",
			})
			return
		}

		claims, err := verifier.Verify(token)
		if errors.Is(err, auth.ErrForbidden) {
			logger.Warn("Service token for another department",
				zap.String("path", c.FullPath()),
				zap.String("expected", verifier.Department()),
				zap.Error(err))
			m.RecordAuthRejection("forbidden")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "Invalid service token for this department.",
			})
			return
		}
		if err != nil {
			logger.Warn("Service JWT verification error", zap.String("path", c.FullPath()), zap.Error(err))
			m.RecordAuthRejection("unauthenticated")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Invalid or expired service token.",
			})
			return
		}

		c.Request = c.Request.WithContext(auth.WithClaims(c.Request.Context(), claims))
		c.Next()
	}
}
