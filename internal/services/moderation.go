package services

import (
  "context"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/openagora/agora-backend/internal/logger"
  "github.com/openagora/agora-backend/internal/repos"
)

type ModerationService interface {
  IsModerator(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID, userID uuid.UUID) (bool, error)
}

type moderationService struct {
  db       *gorm.DB
  log      *logger.Logger
  userRepo repos.UserRepo
  convRepo repos.ConversationRepo
}

func NewModerationService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, convRepo repos.ConversationRepo) ModerationService {
  return &moderationService{
    db:       db,
    log:      log.With("service", "ModerationService"),
    userRepo: userRepo,
    convRepo: convRepo,
  }
}

func (s *moderationService) IsModerator(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID, userID uuid.UUID) (bool, error) {
  if conversationID == uuid.Nil || userID == uuid.Nil {
    return false, nil
  }
  user, err := s.userRepo.GetByID(ctx, tx, userID)
  if err != nil {
    return false, err
  }
  if user != nil && user.IsAdmin {
    return true, nil
  }
  return s.convRepo.OwnerSharesSiteWith(ctx, tx, conversationID, userID)
}
