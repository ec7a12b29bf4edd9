package middleware

import (
  "crypto/subtle"
  "net/http"

  "github.com/gin-gonic/gin"

  "github.com/openagora/agora-backend/internal/logger"
)

type WorkerAuthMiddleware struct {
  log   *logger.Logger
  token []byte
}

func NewWorkerAuthMiddleware(log *logger.Logger, token string) *WorkerAuthMiddleware {
  middlewareLogger := log.With("Middleware", "WorkerAuthMiddleware")
  return &WorkerAuthMiddleware{log: middlewareLogger, token: []byte(token)}
}

// RequireWorker gates the internal task API behind the shared secret the math
// engine is deployed with. An empty configured token closes the surface
// entirely rather than leaving it open.
func (wm *WorkerAuthMiddleware) RequireWorker() gin.HandlerFunc {
  return func(c *gin.Context) {
    presented := []byte(c.GetHeader("X-Worker-Token"))
    if len(wm.token) == 0 || subtle.ConstantTimeCompare(presented, wm.token) != 1 {
      wm.log.Debug("Worker token rejected", "remote", c.ClientIP())
      c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid worker token"})
      return
    }
    c.Next()
  }
}
