package services

import (
  "context"
  "errors"
  "math"
  "net/http"

  "github.com/google/uuid"
  "github.com/jackc/pgx/v5/pgconn"
  "gorm.io/gorm"

  "github.com/openagora/agora-backend/internal/apierr"
  "github.com/openagora/agora-backend/internal/logger"
  "github.com/openagora/agora-backend/internal/repos"
  "github.com/openagora/agora-backend/internal/types"
)

var voteValues = map[string]int{
  "agree":    types.VoteAgree,
  "disagree": types.VoteDisagree,
  "pass":     types.VotePass,
}

type VoteRequest struct {
  ParticipantID  uuid.UUID
  ConversationID uuid.UUID
  StatementID    uuid.UUID
  Value          string
  Weight         float64
  HighPriority   bool
  XID            string
}

type VoteLedgerService interface {
  Record(ctx context.Context, tx *gorm.DB, req VoteRequest) (*types.Vote, error)
  List(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID, participantID *uuid.UUID, statementID *uuid.UUID) ([]*types.Vote, error)
}

type voteLedgerService struct {
  db            *gorm.DB
  log           *logger.Logger
  voteRepo      repos.VoteRepo
  convRepo      repos.ConversationRepo
  whitelistRepo repos.XIDWhitelistRepo
}

func NewVoteLedgerService(db *gorm.DB, log *logger.Logger, voteRepo repos.VoteRepo, convRepo repos.ConversationRepo, whitelistRepo repos.XIDWhitelistRepo) VoteLedgerService {
  return &voteLedgerService{
    db:            db,
    log:           log.With("service", "VoteLedgerService"),
    voteRepo:      voteRepo,
    convRepo:      convRepo,
    whitelistRepo: whitelistRepo,
  }
}

// Record checks preconditions in a fixed order, each with its own stable
// code, then attempts the insert. The unique index over (pid, zid, tid) is
// the arbiter for repeat votes; a later differing vote hits the same
// constraint and is rejected identically.
func (s *voteLedgerService) Record(ctx context.Context, tx *gorm.DB, req VoteRequest) (*types.Vote, error) {
  value, ok := voteValues[req.Value]
  if !ok {
    return nil, apierr.New(http.StatusBadRequest, "polis_err_bad_vote", nil)
  }
  if req.Weight < -1 || req.Weight > 1 {
    return nil, apierr.New(http.StatusBadRequest, "polis_err_bad_vote_weight", nil)
  }
  if req.ParticipantID == uuid.Nil || req.ConversationID == uuid.Nil || req.StatementID == uuid.Nil {
    return nil, apierr.New(http.StatusBadRequest, "polis_err_param_parse_failed", nil)
  }

  conv, err := s.convRepo.GetByID(ctx, tx, req.ConversationID)
  if err != nil {
    s.log.Error("Conversation lookup failed", "conversation_id", req.ConversationID.String(), "error", err)
    return nil, apierr.New(http.StatusInternalServerError, "polis_err_vote_other", err)
  }
  if conv == nil {
    return nil, apierr.New(http.StatusBadRequest, "polis_err_unknown_conversation", nil)
  }
  if !conv.IsActive {
    return nil, apierr.New(http.StatusForbidden, "polis_err_conversation_is_closed", nil)
  }
  if conv.UseXIDWhitelist {
    whitelisted, werr := s.whitelistRepo.IsWhitelisted(ctx, tx, conv.OwnerID, req.XID)
    if werr != nil {
      s.log.Error("Whitelist lookup failed", "conversation_id", req.ConversationID.String(), "error", werr)
      return nil, apierr.New(http.StatusInternalServerError, "polis_err_vote_other", werr)
    }
    if !whitelisted {
      return nil, apierr.New(http.StatusForbidden, "polis_err_xid_not_whitelisted", nil)
    }
  }

  // Weight is a [-1,1] float stored as a SMALLINT; the rounding here is part
  // of the stored-data contract.
  weightFixed := int16(math.Round(req.Weight * 32767))

  vote := &types.Vote{
    ParticipantID:  req.ParticipantID,
    ConversationID: req.ConversationID,
    StatementID:    req.StatementID,
    Vote:           value,
    WeightX32767:   weightFixed,
    HighPriority:   req.HighPriority,
  }
  stored, err := s.voteRepo.Insert(ctx, tx, vote)
  if err != nil {
    if isDuplicateKey(err) {
      // Expected benign race (double submit); not a server fault, so no
      // error-level log here.
      return nil, apierr.New(http.StatusConflict, "polis_err_vote_duplicate", err)
    }
    s.log.Error("polis_err_vote_other", "conversation_id", req.ConversationID.String(), "error", err)
    return nil, apierr.New(http.StatusInternalServerError, "polis_err_vote_other", err)
  }
  return stored, nil
}

func (s *voteLedgerService) List(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID, participantID *uuid.UUID, statementID *uuid.UUID) ([]*types.Vote, error) {
  if conversationID == uuid.Nil {
    return nil, apierr.New(http.StatusBadRequest, "polis_err_param_parse_failed_conversation_id", nil)
  }
  votes, err := s.voteRepo.List(ctx, tx, conversationID, participantID, statementID)
  if err != nil {
    s.log.Error("Vote list failed", "conversation_id", conversationID.String(), "error", err)
    return nil, apierr.New(http.StatusInternalServerError, "polis_err_votes_get", err)
  }
  return votes, nil
}

// isDuplicateKey recognizes SQLSTATE 23505 (unique_violation) from the
// postgres driver.
func isDuplicateKey(err error) bool {
  var pgErr *pgconn.PgError
  if errors.As(err, &pgErr) {
    return pgErr.Code == "23505"
  }
  return errors.Is(err, gorm.ErrDuplicatedKey)
}
