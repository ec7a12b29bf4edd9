package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/openagora/agora-backend/internal/logger"
  "github.com/openagora/agora-backend/internal/types"
)

type XIDWhitelistRepo interface {
  IsWhitelisted(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, xid string) (bool, error)
}

type xidWhitelistRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewXIDWhitelistRepo(db *gorm.DB, baseLog *logger.Logger) XIDWhitelistRepo {
  return &xidWhitelistRepo{
    db:  db,
    log: baseLog.With("repo", "XIDWhitelistRepo"),
  }
}

func (r *xidWhitelistRepo) IsWhitelisted(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, xid string) (bool, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if ownerID == uuid.Nil || xid == "" {
    return false, nil
  }
  var count int64
  err := transaction.WithContext(ctx).
    Model(&types.XIDWhitelistEntry{}).
    Where("owner_id = ? AND xid = ?", ownerID, xid).
    Count(&count).Error
  if err != nil {
    return false, err
  }
  return count > 0, nil
}
