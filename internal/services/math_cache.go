package services

import (
  "context"
  "fmt"

  "github.com/google/uuid"
  lru "github.com/hashicorp/golang-lru/v2"
  "gorm.io/gorm"

  rediscache "github.com/openagora/agora-backend/internal/clients/redis"
  "github.com/openagora/agora-backend/internal/logger"
  "github.com/openagora/agora-backend/internal/repos"
  "github.com/openagora/agora-backend/internal/types"
)

// MathCacheService serves clustering artifacts by conversation and tick floor.
// Reads go per-process LRU -> shared Redis tier -> Postgres; every tier obeys
// the same rule: an artifact is only ever replaced by a strictly newer tick.
type MathCacheService interface {
  Lookup(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID, minTick int64) (*types.ClusteringResult, error)
  Store(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID, tick int64, data []byte) (bool, error)
  ResultsExist(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID) (bool, error)
}

type mathCacheService struct {
  db      *gorm.DB
  log     *logger.Logger
  env     string
  repo    repos.ClusteringResultRepo
  shared  rediscache.ArtifactCache
  results *lru.Cache[string, *types.ClusteringResult]
  exists  *lru.Cache[string, bool]
}

func NewMathCacheService(db *gorm.DB, log *logger.Logger, repo repos.ClusteringResultRepo, shared rediscache.ArtifactCache, env string) (MathCacheService, error) {
  if env == "" {
    return nil, fmt.Errorf("math env required")
  }
  results, err := lru.New[string, *types.ClusteringResult](1024)
  if err != nil {
    return nil, err
  }
  exists, err := lru.New[string, bool](8192)
  if err != nil {
    return nil, err
  }
  return &mathCacheService{
    db:      db,
    log:     log.With("service", "MathCacheService"),
    env:     env,
    repo:    repo,
    shared:  shared,
    results: results,
    exists:  exists,
  }, nil
}

// A minTick below zero means "whatever is cached".
func tickSatisfies(tick, minTick int64) bool {
  return minTick < 0 || tick >= minTick
}

func (s *mathCacheService) Lookup(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID, minTick int64) (*types.ClusteringResult, error) {
  if conversationID == uuid.Nil {
    return nil, fmt.Errorf("missing conversation id")
  }
  key := conversationID.String()

  if item, ok := s.results.Get(key); ok && tickSatisfies(item.MathTick, minTick) {
    return item, nil
  }

  if s.shared != nil {
    row, err := s.shared.Get(ctx, conversationID, s.env)
    if err != nil {
      s.log.Warn("Shared artifact cache read failed", "conversation_id", key, "error", err)
    } else if row != nil {
      s.remember(row)
      if tickSatisfies(row.MathTick, minTick) {
        return row, nil
      }
    }
  }

  row, err := s.repo.GetLatest(ctx, tx, conversationID, s.env)
  if err != nil {
    return nil, err
  }
  if row == nil {
    // No artifact for this conversation at any tick.
    s.exists.Add(key, false)
    return nil, nil
  }
  s.remember(row)
  if s.shared != nil {
    if perr := s.shared.Put(ctx, row); perr != nil {
      s.log.Warn("Shared artifact cache write failed", "conversation_id", key, "error", perr)
    }
  }
  if tickSatisfies(row.MathTick, minTick) {
    return row, nil
  }
  return nil, nil
}

// Store is invoked on worker completion. The write applies only when tick is
// strictly greater than the stored artifact's; ties and regressions report
// false with no error.
func (s *mathCacheService) Store(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID, tick int64, data []byte) (bool, error) {
  if conversationID == uuid.Nil {
    return false, fmt.Errorf("missing conversation id")
  }
  if tick < 0 {
    return false, fmt.Errorf("math tick must be non-negative, got %d", tick)
  }
  row := &types.ClusteringResult{
    ConversationID: conversationID,
    MathEnv:        s.env,
    MathTick:       tick,
    Data:           data,
  }
  applied, err := s.repo.Upsert(ctx, tx, row)
  if err != nil {
    return false, err
  }
  if !applied {
    return false, nil
  }
  s.remember(row)
  if s.shared != nil {
    if perr := s.shared.Put(ctx, row); perr != nil {
      s.log.Warn("Shared artifact cache write failed", "conversation_id", conversationID.String(), "error", perr)
    }
  }
  return true, nil
}

// ResultsExist resolves the tri-state existence flag, seeding it with a
// one-time unrestricted lookup on first miss. The flag is per-process and
// safe to lose; sibling instances each warm their own copy.
func (s *mathCacheService) ResultsExist(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID) (bool, error) {
  if conversationID == uuid.Nil {
    return false, fmt.Errorf("missing conversation id")
  }
  if v, ok := s.exists.Get(conversationID.String()); ok {
    return v, nil
  }
  row, err := s.Lookup(ctx, tx, conversationID, -1)
  if err != nil {
    return false, err
  }
  return row != nil, nil
}

// remember keeps the LRU monotonic: a cached entry is only replaced by a
// strictly newer artifact.
func (s *mathCacheService) remember(row *types.ClusteringResult) {
  key := row.ConversationID.String()
  if existing, ok := s.results.Get(key); ok && existing.MathTick >= row.MathTick {
    s.exists.Add(key, true)
    return
  }
  s.results.Add(key, row)
  s.exists.Add(key, true)
}
