package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/openagora/agora-backend/internal/logger"
  "github.com/openagora/agora-backend/internal/types"
)

type ReportRepo interface {
  GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Report, error)
  HasCommentSelections(ctx context.Context, tx *gorm.DB, reportID uuid.UUID) (bool, error)
}

type reportRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewReportRepo(db *gorm.DB, baseLog *logger.Logger) ReportRepo {
  return &reportRepo{
    db:  db,
    log: baseLog.With("repo", "ReportRepo"),
  }
}

func (r *reportRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Report, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if id == uuid.Nil {
    return nil, nil
  }
  var report types.Report
  err := transaction.WithContext(ctx).
    Where("id = ?", id).
    Limit(1).
    Find(&report).Error
  if err != nil {
    return nil, err
  }
  if report.ID == uuid.Nil {
    return nil, nil
  }
  return &report, nil
}

func (r *reportRepo) HasCommentSelections(ctx context.Context, tx *gorm.DB, reportID uuid.UUID) (bool, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if reportID == uuid.Nil {
    return false, nil
  }
  var count int64
  err := transaction.WithContext(ctx).
    Model(&types.CommentSelection{}).
    Where("rid = ? AND selection = 1", reportID).
    Count(&count).Error
  if err != nil {
    return false, err
  }
  return count > 0, nil
}
