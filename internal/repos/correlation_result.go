package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/openagora/agora-backend/internal/logger"
  "github.com/openagora/agora-backend/internal/types"
)

type CorrelationResultRepo interface {
  GetLatestCovering(ctx context.Context, tx *gorm.DB, reportID uuid.UUID, env string, minTick int64) (*types.CorrelationResult, error)
  Insert(ctx context.Context, tx *gorm.DB, row *types.CorrelationResult) (*types.CorrelationResult, error)
}

type correlationResultRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewCorrelationResultRepo(db *gorm.DB, baseLog *logger.Logger) CorrelationResultRepo {
  return &correlationResultRepo{
    db:  db,
    log: baseLog.With("repo", "CorrelationResultRepo"),
  }
}

func (r *correlationResultRepo) GetLatestCovering(ctx context.Context, tx *gorm.DB, reportID uuid.UUID, env string, minTick int64) (*types.CorrelationResult, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if reportID == uuid.Nil || env == "" {
    return nil, nil
  }
  var row types.CorrelationResult
  err := transaction.WithContext(ctx).
    Where("rid = ? AND math_env = ? AND math_tick >= ?", reportID, env, minTick).
    Order("math_tick DESC").
    Limit(1).
    Find(&row).Error
  if err != nil {
    return nil, err
  }
  if row.ID == uuid.Nil {
    return nil, nil
  }
  return &row, nil
}

// Insert is the worker-side completion write for report matrices.
func (r *correlationResultRepo) Insert(ctx context.Context, tx *gorm.DB, row *types.CorrelationResult) (*types.CorrelationResult, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if row == nil {
    return nil, nil
  }
  if row.ID == uuid.Nil {
    row.ID = uuid.New()
  }
  if err := transaction.WithContext(ctx).Create(row).Error; err != nil {
    return nil, err
  }
  return row, nil
}
