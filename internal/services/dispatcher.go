package services

import (
  "context"
  "encoding/json"
  "fmt"

  "github.com/google/uuid"
  "gorm.io/datatypes"
  "gorm.io/gorm"

  "github.com/openagora/agora-backend/internal/logger"
  "github.com/openagora/agora-backend/internal/repos"
  "github.com/openagora/agora-backend/internal/types"
)

type DispatchOutcome string

const (
  DispatchEnqueued           DispatchOutcome = "enqueued"
  DispatchAlreadyPending     DispatchOutcome = "already_pending"
  DispatchPreconditionFailed DispatchOutcome = "precondition_failed"
)

// DispatchRequest describes one unit of recomputation work to ensure. Bucket
// is the partition key, normally the owning conversation or report id.
// Precondition, when set, gates enqueueing; its failure is an outcome, not an
// error.
type DispatchRequest struct {
  TaskType     string
  Bucket       uuid.UUID
  MinTick      int64
  Payload      map[string]interface{}
  Precondition func(ctx context.Context, tx *gorm.DB) (bool, error)
}

// TaskDispatcherService guarantees at most one unfinished task per
// (type, bucket, env) covering a given tick floor, under arbitrary concurrent
// callers across processes.
type TaskDispatcherService interface {
  EnsureRequested(ctx context.Context, tx *gorm.DB, req DispatchRequest) (DispatchOutcome, error)
}

type taskDispatcherService struct {
  db       *gorm.DB
  log      *logger.Logger
  env      string
  taskRepo repos.WorkerTaskRepo
}

func NewTaskDispatcherService(db *gorm.DB, log *logger.Logger, taskRepo repos.WorkerTaskRepo, env string) TaskDispatcherService {
  return &taskDispatcherService{
    db:       db,
    log:      log.With("service", "TaskDispatcherService"),
    env:      env,
    taskRepo: taskRepo,
  }
}

func (s *taskDispatcherService) EnsureRequested(ctx context.Context, tx *gorm.DB, req DispatchRequest) (DispatchOutcome, error) {
  if req.TaskType == "" {
    return "", fmt.Errorf("missing task type")
  }
  if req.Bucket == uuid.Nil {
    return "", fmt.Errorf("missing task bucket")
  }

  minTick := req.MinTick
  if minTick < 0 {
    minTick = 0
  }

  if req.Precondition != nil {
    ok, err := req.Precondition(ctx, tx)
    if err != nil {
      return "", err
    }
    if !ok {
      return DispatchPreconditionFailed, nil
    }
  }

  payload := map[string]interface{}{}
  for k, v := range req.Payload {
    payload[k] = v
  }
  payload["math_tick"] = minTick
  data, err := json.Marshal(payload)
  if err != nil {
    return "", err
  }

  task := &types.WorkerTask{
    TaskType:   req.TaskType,
    TaskData:   datatypes.JSON(data),
    TaskBucket: req.Bucket,
    MathEnv:    s.env,
  }
  created, err := s.taskRepo.EnsurePending(ctx, tx, task, minTick)
  if err != nil {
    return "", err
  }
  if !created {
    return DispatchAlreadyPending, nil
  }
  s.log.Info("Enqueued worker task",
    "task_type", req.TaskType,
    "task_bucket", req.Bucket.String(),
    "math_env", s.env,
    "math_tick", minTick,
  )
  return DispatchEnqueued, nil
}
