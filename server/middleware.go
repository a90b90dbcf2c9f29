package server

import (
	// Go Internal Packages
	"net/http"
	"strings"
	"time"

	// Local Packages
	models "coinnet/models"

	// External Packages
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	HeaderActorID   = "X-Actor-ID"
	HeaderActorRole = "X-Actor-Role"

	actorKey = "actor"
)

// identity trusts the actor headers set by the upstream identity provider.
func identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := models.Actor{
			ID:   strings.TrimSpace(c.GetHeader(HeaderActorID)),
			Role: models.Role(strings.ToLower(strings.TrimSpace(c.GetHeader(HeaderActorRole)))),
		}
		if actor.ID == "" || !actor.Role.Valid() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{
				Error:   "unauthenticated",
				Message: HeaderActorID + " and " + HeaderActorRole + " (requester, provider or admin) are required",
			})
			return
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

func actorOf(c *gin.Context) models.Actor {
	return c.MustGet(actorKey).(models.Actor)
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Error("request completed", fields...)
			return
		}
		logger.Info("request completed", fields...)
	}
}
