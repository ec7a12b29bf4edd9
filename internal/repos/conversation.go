package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/openagora/agora-backend/internal/logger"
  "github.com/openagora/agora-backend/internal/types"
)

type ConversationRepo interface {
  GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Conversation, error)
  OwnerSharesSiteWith(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID, userID uuid.UUID) (bool, error)
}

type conversationRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewConversationRepo(db *gorm.DB, baseLog *logger.Logger) ConversationRepo {
  return &conversationRepo{
    db:  db,
    log: baseLog.With("repo", "ConversationRepo"),
  }
}

func (r *conversationRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Conversation, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if id == uuid.Nil {
    return nil, nil
  }
  var conv types.Conversation
  err := transaction.WithContext(ctx).
    Where("id = ?", id).
    Limit(1).
    Find(&conv).Error
  if err != nil {
    return nil, err
  }
  if conv.ID == uuid.Nil {
    return nil, nil
  }
  return &conv, nil
}

// OwnerSharesSiteWith reports whether the conversation's owner belongs to the
// same site as the given user, which is the moderator criterion.
func (r *conversationRepo) OwnerSharesSiteWith(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID, userID uuid.UUID) (bool, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if conversationID == uuid.Nil || userID == uuid.Nil {
    return false, nil
  }
  var count int64
  err := transaction.WithContext(ctx).
    Model(&types.Conversation{}).
    Where("id = ?", conversationID).
    Where(`owner_id IN (
      SELECT id FROM users
      WHERE site_id = (SELECT site_id FROM users WHERE id = ?)
    )`, userID).
    Count(&count).Error
  if err != nil {
    return false, err
  }
  return count >= 1, nil
}
