package server

import (
  "github.com/gin-gonic/gin"
  "github.com/gin-contrib/cors"
  "github.com/openagora/agora-backend/internal/handlers"
  "github.com/openagora/agora-backend/internal/middleware"
)

type RouterConfig struct {
  AuthMiddleware       *middleware.AuthMiddleware
  WorkerAuthMiddleware *middleware.WorkerAuthMiddleware
  MathHandler          *handlers.MathHandler
  CorrelationHandler   *handlers.CorrelationHandler
  VotesHandler         *handlers.VotesHandler
  TasksHandler         *handlers.TasksHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  router := gin.Default()

  // Cors
  router.Use(cors.New(cors.Config{
    AllowOrigins: []string{
      "http://localhost:80",
      "http://localhost:3000",
      "http://localhost:5174",
    },
    AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
    AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "If-None-Match"},
    ExposeHeaders:    []string{"ETag"},
    AllowCredentials: true,
  }))

// ===============
// || Public    ||
// ===============
  router.GET("/healthcheck", handlers.HealthCheck)
  api := router.Group("/api/v3")
  {
    api.GET("/math/pca", cfg.MathHandler.GetPCA)
    api.GET("/math/pca2", cfg.MathHandler.GetPCA2)
    api.GET("/math/correlationMatrix", cfg.CorrelationHandler.GetCorrelationMatrix)
    api.POST("/votes", cfg.VotesHandler.PostVote)
    api.GET("/votes", cfg.VotesHandler.GetVotes)
  }

// ===============
// || Protected ||
// ===============
  protected := router.Group("/api/v3")
  protected.Use(cfg.AuthMiddleware.RequireAuth())
  protected.POST("/math/update", cfg.MathHandler.PostMathUpdate)

// ===============
// || Internal  ||
// ===============
  internal := router.Group("/api/internal")
  internal.Use(cfg.WorkerAuthMiddleware.RequireWorker())
  {
    internal.POST("/tasks/claim", cfg.TasksHandler.ClaimTask)
    internal.POST("/tasks/:task_id/finish", cfg.TasksHandler.FinishTask)
    internal.POST("/math/results", cfg.TasksHandler.PostClusteringResult)
    internal.POST("/reports/:report_id/correlation", cfg.TasksHandler.PostCorrelationResult)
  }

  return router
}
