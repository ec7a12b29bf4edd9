package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/openagora/agora-backend/internal/logger"
  "github.com/openagora/agora-backend/internal/types"
)

type VoteRepo interface {
  Insert(ctx context.Context, tx *gorm.DB, vote *types.Vote) (*types.Vote, error)
  List(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID, participantID *uuid.UUID, statementID *uuid.UUID) ([]*types.Vote, error)
}

type voteRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewVoteRepo(db *gorm.DB, baseLog *logger.Logger) VoteRepo {
  return &voteRepo{
    db:  db,
    log: baseLog.With("repo", "VoteRepo"),
  }
}

// Insert does not classify constraint violations; the unique index over
// (pid, zid, tid) surfaces as a raw driver error for the service to map.
func (r *voteRepo) Insert(ctx context.Context, tx *gorm.DB, vote *types.Vote) (*types.Vote, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if vote == nil {
    return nil, nil
  }
  if vote.ID == uuid.Nil {
    vote.ID = uuid.New()
  }
  if err := transaction.WithContext(ctx).Create(vote).Error; err != nil {
    return nil, err
  }
  return vote, nil
}

func (r *voteRepo) List(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID, participantID *uuid.UUID, statementID *uuid.UUID) ([]*types.Vote, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var out []*types.Vote
  if conversationID == uuid.Nil {
    return out, nil
  }
  q := transaction.WithContext(ctx).Where("zid = ?", conversationID)
  if participantID != nil {
    q = q.Where("pid = ?", *participantID)
  }
  if statementID != nil {
    q = q.Where("tid = ?", *statementID)
  }
  if err := q.Order("created ASC").Find(&out).Error; err != nil {
    return nil, err
  }
  return out, nil
}
