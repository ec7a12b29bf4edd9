package main

import (
  "fmt"
  "os"
  "github.com/openagora/agora-backend/internal/logger"
  "github.com/openagora/agora-backend/internal/utils"
  "github.com/openagora/agora-backend/internal/db"
  rediscache "github.com/openagora/agora-backend/internal/clients/redis"
  "github.com/openagora/agora-backend/internal/repos"
  "github.com/openagora/agora-backend/internal/services"
  "github.com/openagora/agora-backend/internal/handlers"
  "github.com/openagora/agora-backend/internal/middleware"
  "github.com/openagora/agora-backend/internal/server"
)

func main() {
  // Logger
  logMode := os.Getenv("LOG_MODE")
  if logMode == "" {
    logMode = "development"
  }
  log, err := logger.New(logMode)
  if err != nil {
    fmt.Printf("Failed to init logger: %v\n", err)
    os.Exit(1)
  }
  defer log.Sync()

  // Env
  log.Info("Loading environment variables from main...")
  jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
  mathEnv := utils.GetEnv("MATH_ENV", "prod", log)
  workerToken := utils.GetEnv("MATH_WORKER_TOKEN", "", log)
  workerMaxAttempts := utils.GetEnvAsInt("WORKER_MAX_ATTEMPTS", 3, log)

  // Postgres
  postgresService, err := db.NewPostgresService(log)
  if err != nil {
    log.Error("Postgres init failed", "error", err)
    os.Exit(1)
  }
  if err = postgresService.AutoMigrateAll(); err != nil {
    log.Warn("Postgres auto migration failed", "error", err)
  }
  thePG := postgresService.DB()

  // Repos
  log.Info("Setting up Repos from main...")
  userRepo := repos.NewUserRepo(thePG, log)
  conversationRepo := repos.NewConversationRepo(thePG, log)
  voteRepo := repos.NewVoteRepo(thePG, log)
  workerTaskRepo := repos.NewWorkerTaskRepo(thePG, log)
  clusteringResultRepo := repos.NewClusteringResultRepo(thePG, log)
  reportRepo := repos.NewReportRepo(thePG, log)
  correlationResultRepo := repos.NewCorrelationResultRepo(thePG, log)
  xidWhitelistRepo := repos.NewXIDWhitelistRepo(thePG, log)

  // Shared artifact cache (optional; per-process LRU still applies without it)
  var artifactCache rediscache.ArtifactCache
  if cacheClient, cerr := rediscache.NewArtifactCache(log); cerr != nil {
    log.Warn("Could not init redis artifact cache, continuing without it", "error", cerr)
  } else {
    artifactCache = cacheClient
  }

  // Services
  log.Info("Setting up Services from main...")
  mathCacheService, err := services.NewMathCacheService(thePG, log, clusteringResultRepo, artifactCache, mathEnv)
  if err != nil {
    log.Error("Could not init MathCacheService", "error", err)
    os.Exit(1)
  }
  dispatcherService := services.NewTaskDispatcherService(thePG, log, workerTaskRepo, mathEnv)
  moderationService := services.NewModerationService(thePG, log, userRepo, conversationRepo)
  correlationService := services.NewCorrelationService(thePG, log, correlationResultRepo, reportRepo, dispatcherService, mathEnv)
  voteLedgerService := services.NewVoteLedgerService(thePG, log, voteRepo, conversationRepo, xidWhitelistRepo)
  workerGatewayService := services.NewWorkerGatewayService(thePG, log, workerTaskRepo, correlationResultRepo, mathCacheService, mathEnv, workerMaxAttempts)

  // Handlers
  log.Info("Setting up handlers from main...")
  mathHandler := handlers.NewMathHandler(log, mathCacheService, dispatcherService, moderationService)
  correlationHandler := handlers.NewCorrelationHandler(log, correlationService)
  votesHandler := handlers.NewVotesHandler(log, voteLedgerService)
  tasksHandler := handlers.NewTasksHandler(log, workerGatewayService)

  // Middleware
  log.Info("Setting up middleware from main...")
  authMiddleware := middleware.NewAuthMiddleware(log, jwtSecretKey)
  workerAuthMiddleware := middleware.NewWorkerAuthMiddleware(log, workerToken)

  // Router
  log.Info("Setting up router from main...")
  router := server.NewRouter(server.RouterConfig{
    AuthMiddleware:       authMiddleware,
    WorkerAuthMiddleware: workerAuthMiddleware,
    MathHandler:          mathHandler,
    CorrelationHandler:   correlationHandler,
    VotesHandler:         votesHandler,
    TasksHandler:         tasksHandler,
  })

  port := utils.GetEnv("PORT", "8080", log)
  fmt.Printf("Server listening on :%s\n", port)
  if err := router.Run(":" + port); err != nil {
    log.Warn("Server failed", "error", err)
  }
}
