package repos

import (
  "context"
  "time"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "gorm.io/gorm/clause"
  "github.com/openagora/agora-backend/internal/logger"
  "github.com/openagora/agora-backend/internal/types"
)

type ClusteringResultRepo interface {
  GetLatest(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID, env string) (*types.ClusteringResult, error)
  Upsert(ctx context.Context, tx *gorm.DB, row *types.ClusteringResult) (bool, error)
}

type clusteringResultRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewClusteringResultRepo(db *gorm.DB, baseLog *logger.Logger) ClusteringResultRepo {
  return &clusteringResultRepo{
    db:  db,
    log: baseLog.With("repo", "ClusteringResultRepo"),
  }
}

func (r *clusteringResultRepo) GetLatest(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID, env string) (*types.ClusteringResult, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if conversationID == uuid.Nil || env == "" {
    return nil, nil
  }
  var row types.ClusteringResult
  err := transaction.WithContext(ctx).
    Where("zid = ? AND math_env = ?", conversationID, env).
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

// Upsert writes the artifact only when its math_tick is strictly greater than
// the stored one. Ties and regressions are no-ops so out-of-order worker
// completions cannot roll the cache back. Returns whether the write applied.
func (r *clusteringResultRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.ClusteringResult) (bool, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if row == nil || row.ConversationID == uuid.Nil || row.MathEnv == "" {
    return false, nil
  }
  if row.ID == uuid.Nil {
    row.ID = uuid.New()
  }
  row.UpdatedAt = time.Now()
  res := transaction.WithContext(ctx).
    Clauses(clause.OnConflict{
      Columns: []clause.Column{{Name: "zid"}, {Name: "math_env"}},
      DoUpdates: clause.Assignments(map[string]interface{}{
        "math_tick":  row.MathTick,
        "data":       row.Data,
        "updated_at": row.UpdatedAt,
      }),
      Where: clause.Where{
        Exprs: []clause.Expression{
          clause.Expr{SQL: "excluded.math_tick > clustering_result.math_tick"},
        },
      },
    }).
    Create(row)
  if res.Error != nil {
    return false, res.Error
  }
  return res.RowsAffected > 0, nil
}
