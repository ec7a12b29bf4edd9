package services

import (
  "context"
  "net/http"

  "github.com/google/uuid"
  "gorm.io/datatypes"
  "gorm.io/gorm"

  "github.com/openagora/agora-backend/internal/apierr"
  "github.com/openagora/agora-backend/internal/logger"
  "github.com/openagora/agora-backend/internal/repos"
  "github.com/openagora/agora-backend/internal/types"
)

// CorrelationOutcome is what the polling endpoint needs to choose between
// 200 (Data set), 202 pending, and 202 needs-selection.
type CorrelationOutcome struct {
  Ready          bool
  NeedsSelection bool
  Data           datatypes.JSON
}

type CorrelationService interface {
  Matrix(ctx context.Context, tx *gorm.DB, reportID uuid.UUID, minTick int64) (*CorrelationOutcome, error)
}

type correlationService struct {
  db         *gorm.DB
  log        *logger.Logger
  env        string
  corrRepo   repos.CorrelationResultRepo
  reportRepo repos.ReportRepo
  dispatcher TaskDispatcherService
}

func NewCorrelationService(db *gorm.DB, log *logger.Logger, corrRepo repos.CorrelationResultRepo, reportRepo repos.ReportRepo, dispatcher TaskDispatcherService, env string) CorrelationService {
  return &correlationService{
    db:         db,
    log:        log.With("service", "CorrelationService"),
    env:        env,
    corrRepo:   corrRepo,
    reportRepo: reportRepo,
    dispatcher: dispatcher,
  }
}

func (s *correlationService) Matrix(ctx context.Context, tx *gorm.DB, reportID uuid.UUID, minTick int64) (*CorrelationOutcome, error) {
  if reportID == uuid.Nil {
    return nil, apierr.New(http.StatusBadRequest, "polis_err_param_parse_failed_report_id", nil)
  }

  row, err := s.corrRepo.GetLatestCovering(ctx, tx, reportID, s.env, minTick)
  if err != nil {
    s.log.Error("Correlation matrix lookup failed", "report_id", reportID.String(), "error", err)
    return nil, apierr.New(http.StatusInternalServerError, "polis_err_GET_math_correlationMatrix", err)
  }
  if row != nil {
    return &CorrelationOutcome{Ready: true, Data: row.Data}, nil
  }

  report, err := s.reportRepo.GetByID(ctx, tx, reportID)
  if err != nil {
    s.log.Error("Report lookup failed", "report_id", reportID.String(), "error", err)
    return nil, apierr.New(http.StatusInternalServerError, "polis_err_GET_math_correlationMatrix", err)
  }
  if report == nil {
    return nil, apierr.New(http.StatusBadRequest, "polis_err_unknown_report", nil)
  }

  outcome, err := s.dispatcher.EnsureRequested(ctx, tx, DispatchRequest{
    TaskType: types.TaskTypeGenerateReportData,
    Bucket:   reportID,
    MinTick:  minTick,
    Payload: map[string]interface{}{
      "rid": reportID.String(),
      "zid": report.ConversationID.String(),
    },
    Precondition: func(pctx context.Context, ptx *gorm.DB) (bool, error) {
      return s.reportRepo.HasCommentSelections(pctx, ptx, reportID)
    },
  })
  if err != nil {
    s.log.Error("Correlation matrix dispatch failed", "report_id", reportID.String(), "error", err)
    return nil, apierr.New(http.StatusInternalServerError, "polis_err_GET_math_correlationMatrix", err)
  }
  if outcome == DispatchPreconditionFailed {
    return &CorrelationOutcome{NeedsSelection: true}, nil
  }
  return &CorrelationOutcome{}, nil
}
