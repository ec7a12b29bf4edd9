package repos

import (
  "context"
  "errors"
  "time"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "gorm.io/gorm/clause"
  "github.com/openagora/agora-backend/internal/logger"
  "github.com/openagora/agora-backend/internal/types"
)

type WorkerTaskRepo interface {
  Insert(ctx context.Context, tx *gorm.DB, task *types.WorkerTask) (*types.WorkerTask, error)
  GetPendingCovering(ctx context.Context, tx *gorm.DB, taskType string, bucket uuid.UUID, env string, minTick int64) (*types.WorkerTask, error)
  EnsurePending(ctx context.Context, tx *gorm.DB, task *types.WorkerTask, minTick int64) (bool, error)
  ClaimNextRunnable(ctx context.Context, tx *gorm.DB, taskTypes []string, env string, maxAttempts int) (*types.WorkerTask, error)
  MarkFinished(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type workerTaskRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewWorkerTaskRepo(db *gorm.DB, baseLog *logger.Logger) WorkerTaskRepo {
  return &workerTaskRepo{
    db:  db,
    log: baseLog.With("repo", "WorkerTaskRepo"),
  }
}

func (r *workerTaskRepo) Insert(ctx context.Context, tx *gorm.DB, task *types.WorkerTask) (*types.WorkerTask, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if task == nil {
    return nil, nil
  }
  if task.ID == uuid.Nil {
    task.ID = uuid.New()
  }
  if err := transaction.WithContext(ctx).Create(task).Error; err != nil {
    return nil, err
  }
  return task, nil
}

// GetPendingCovering finds an unfinished task for the same (type, bucket, env)
// whose requested math_tick already covers minTick. Coverage, not equality:
// a pending request for tick 5 satisfies a new request for tick 4.
func (r *workerTaskRepo) GetPendingCovering(ctx context.Context, tx *gorm.DB, taskType string, bucket uuid.UUID, env string, minTick int64) (*types.WorkerTask, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var task types.WorkerTask
  err := transaction.WithContext(ctx).
    Where("task_type = ? AND task_bucket = ? AND math_env = ?", taskType, bucket, env).
    Where("finished_time IS NULL").
    Where("(task_data->>'math_tick')::bigint >= ?", minTick).
    Order("created_at DESC").
    Limit(1).
    Find(&task).Error
  if err != nil {
    return nil, err
  }
  if task.ID == uuid.Nil {
    return nil, nil
  }
  return &task, nil
}

// EnsurePending is the atomic check-and-insert behind dispatch dedup. The
// advisory xact lock serializes concurrent callers for the same
// (type, bucket, env) even when no pending row exists yet to lock on.
// Returns true when a new task row was created.
func (r *workerTaskRepo) EnsurePending(ctx context.Context, tx *gorm.DB, task *types.WorkerTask, minTick int64) (bool, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if task == nil {
    return false, nil
  }
  created := false
  err := transaction.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
    lockKey := task.TaskType + ":" + task.TaskBucket.String() + ":" + task.MathEnv
    if err := txx.Exec(`SELECT pg_advisory_xact_lock(hashtextextended(?, 0))`, lockKey).Error; err != nil {
      return err
    }
    existing, err := r.GetPendingCovering(ctx, txx, task.TaskType, task.TaskBucket, task.MathEnv, minTick)
    if err != nil {
      return err
    }
    if existing != nil {
      return nil
    }
    if _, err := r.Insert(ctx, txx, task); err != nil {
      return err
    }
    created = true
    return nil
  })
  if err != nil {
    return false, err
  }
  return created, nil
}

// ClaimNextRunnable is the worker-side contract: grab the oldest unfinished
// task without blocking concurrent workers, bumping attempts.
func (r *workerTaskRepo) ClaimNextRunnable(ctx context.Context, tx *gorm.DB, taskTypes []string, env string, maxAttempts int) (*types.WorkerTask, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  now := time.Now()
  var claimed *types.WorkerTask
  err := transaction.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
    var task types.WorkerTask
    q := txx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
      Where("task_type IN ? AND math_env = ?", taskTypes, env).
      Where("finished_time IS NULL").
      Where("attempts < ?", maxAttempts).
      Order("created_at ASC")
    qErr := q.First(&task).Error
    if errors.Is(qErr, gorm.ErrRecordNotFound) {
      return nil
    }
    if qErr != nil {
      return qErr
    }
    uErr := txx.Model(&types.WorkerTask{}).
      Where("id = ?", task.ID).
      Updates(map[string]interface{}{
        "attempts":  gorm.Expr("attempts + 1"),
        "locked_at": now,
      }).Error
    if uErr != nil {
      return uErr
    }
    task.Attempts++
    task.LockedAt = &now
    claimed = &task
    return nil
  })
  if err != nil {
    return nil, err
  }
  return claimed, nil
}

func (r *workerTaskRepo) MarkFinished(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if id == uuid.Nil {
    return nil
  }
  return transaction.WithContext(ctx).
    Model(&types.WorkerTask{}).
    Where("id = ? AND finished_time IS NULL", id).
    Update("finished_time", time.Now()).Error
}
