package handlers

import (
  "net/http"
  "strconv"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/openagora/agora-backend/internal/logger"
  "github.com/openagora/agora-backend/internal/services"
)

type CorrelationHandler struct {
  log *logger.Logger
  svc services.CorrelationService
}

func NewCorrelationHandler(log *logger.Logger, svc services.CorrelationService) *CorrelationHandler {
  return &CorrelationHandler{
    log: log.With("handler", "CorrelationHandler"),
    svc: svc,
  }
}

// GET /api/v3/math/correlationMatrix?report_id=&math_tick=
// 200 with the matrix once computed; 202 pending while a worker task is
// outstanding (enqueueing one if none covers the requested tick); 202
// needs-comment-selection when the report has nothing selected yet.
func (h *CorrelationHandler) GetCorrelationMatrix(c *gin.Context) {
  reportID, err := uuid.Parse(c.Query("report_id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "polis_err_param_parse_failed_report_id", err)
    return
  }
  minTick := int64(-1)
  if tickStr := c.Query("math_tick"); tickStr != "" {
    minTick, err = strconv.ParseInt(tickStr, 10, 64)
    if err != nil {
      RespondError(c, http.StatusBadRequest, "polis_err_math_tick_parse_failed", err)
      return
    }
  }

  outcome, err := h.svc.Matrix(c.Request.Context(), nil, reportID, minTick)
  if err != nil {
    RespondAppError(c, err)
    return
  }
  if outcome.Ready {
    c.Data(http.StatusOK, "application/json", outcome.Data)
    return
  }
  if outcome.NeedsSelection {
    c.JSON(http.StatusAccepted, gin.H{"status": "polis_report_needs_comment_selection"})
    return
  }
  c.JSON(http.StatusAccepted, gin.H{"status": "pending"})
}
