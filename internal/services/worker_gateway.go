package services

import (
  "context"
  "net/http"

  "github.com/google/uuid"
  "gorm.io/datatypes"
  "gorm.io/gorm"

  "github.com/openagora/agora-backend/internal/apierr"
  "github.com/openagora/agora-backend/internal/logger"
  "github.com/openagora/agora-backend/internal/repos"
  "github.com/openagora/agora-backend/internal/types"
)

// WorkerGatewayService is the server side of the math engine's task loop: the
// engine claims pending work, posts artifacts back, and marks the task
// finished. The engine itself runs out of process; this service only owns the
// task transport and the result writes.
type WorkerGatewayService interface {
  ClaimTask(ctx context.Context, tx *gorm.DB, taskTypes []string) (*types.WorkerTask, error)
  FinishTask(ctx context.Context, tx *gorm.DB, taskID uuid.UUID) error
  SubmitClustering(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID, tick int64, data []byte) (bool, error)
  SubmitCorrelation(ctx context.Context, tx *gorm.DB, reportID uuid.UUID, tick int64, data datatypes.JSON) error
}

type workerGatewayService struct {
  db          *gorm.DB
  log         *logger.Logger
  env         string
  maxAttempts int
  taskRepo    repos.WorkerTaskRepo
  corrRepo    repos.CorrelationResultRepo
  cache       MathCacheService
}

func NewWorkerGatewayService(db *gorm.DB, log *logger.Logger, taskRepo repos.WorkerTaskRepo, corrRepo repos.CorrelationResultRepo, cache MathCacheService, env string, maxAttempts int) WorkerGatewayService {
  if maxAttempts <= 0 {
    maxAttempts = 3
  }
  return &workerGatewayService{
    db:          db,
    log:         log.With("service", "WorkerGatewayService"),
    env:         env,
    maxAttempts: maxAttempts,
    taskRepo:    taskRepo,
    corrRepo:    corrRepo,
    cache:       cache,
  }
}

func (s *workerGatewayService) ClaimTask(ctx context.Context, tx *gorm.DB, taskTypes []string) (*types.WorkerTask, error) {
  if len(taskTypes) == 0 {
    taskTypes = []string{types.TaskTypeUpdateMath, types.TaskTypeGenerateReportData}
  }
  task, err := s.taskRepo.ClaimNextRunnable(ctx, tx, taskTypes, s.env, s.maxAttempts)
  if err != nil {
    s.log.Error("Task claim failed", "error", err)
    return nil, apierr.New(http.StatusInternalServerError, "polis_err_task_claim", err)
  }
  return task, nil
}

func (s *workerGatewayService) FinishTask(ctx context.Context, tx *gorm.DB, taskID uuid.UUID) error {
  if taskID == uuid.Nil {
    return apierr.New(http.StatusBadRequest, "polis_err_param_parse_failed_task_id", nil)
  }
  if err := s.taskRepo.MarkFinished(ctx, tx, taskID); err != nil {
    s.log.Error("Task finish failed", "task_id", taskID.String(), "error", err)
    return apierr.New(http.StatusInternalServerError, "polis_err_task_finish", err)
  }
  return nil
}

// SubmitClustering stores one clustering artifact. Returns whether the write
// won; a losing write means a sibling engine already landed a newer tick,
// which the engine treats as success.
func (s *workerGatewayService) SubmitClustering(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID, tick int64, data []byte) (bool, error) {
  if conversationID == uuid.Nil {
    return false, apierr.New(http.StatusBadRequest, "polis_err_param_parse_failed_conversation_id", nil)
  }
  if tick < 0 {
    return false, apierr.New(http.StatusBadRequest, "polis_err_math_tick_parse_failed", nil)
  }
  applied, err := s.cache.Store(ctx, tx, conversationID, tick, data)
  if err != nil {
    s.log.Error("Clustering artifact store failed", "conversation_id", conversationID.String(), "math_tick", tick, "error", err)
    return false, apierr.New(http.StatusInternalServerError, "polis_err_math_result_store", err)
  }
  return applied, nil
}

func (s *workerGatewayService) SubmitCorrelation(ctx context.Context, tx *gorm.DB, reportID uuid.UUID, tick int64, data datatypes.JSON) error {
  if reportID == uuid.Nil {
    return apierr.New(http.StatusBadRequest, "polis_err_param_parse_failed_report_id", nil)
  }
  if tick < 0 {
    return apierr.New(http.StatusBadRequest, "polis_err_math_tick_parse_failed", nil)
  }
  _, err := s.corrRepo.Insert(ctx, tx, &types.CorrelationResult{
    ReportID: reportID,
    MathEnv:  s.env,
    MathTick: tick,
    Data:     data,
  })
  if err != nil {
    s.log.Error("Correlation result store failed", "report_id", reportID.String(), "math_tick", tick, "error", err)
    return apierr.New(http.StatusInternalServerError, "polis_err_math_result_store", err)
  }
  return nil
}
