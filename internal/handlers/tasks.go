package handlers

import (
  "encoding/json"
  "net/http"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"
  "gorm.io/datatypes"

  "github.com/openagora/agora-backend/internal/logger"
  "github.com/openagora/agora-backend/internal/services"
)

// TasksHandler is the internal surface the out-of-process math engine talks
// to. It is mounted behind the worker token middleware, never exposed to
// participants.
type TasksHandler struct {
  log *logger.Logger
  svc services.WorkerGatewayService
}

func NewTasksHandler(log *logger.Logger, svc services.WorkerGatewayService) *TasksHandler {
  return &TasksHandler{
    log: log.With("handler", "TasksHandler"),
    svc: svc,
  }
}

// POST /api/internal/tasks/claim
// 200 with the claimed task, 204 when nothing is runnable.
func (h *TasksHandler) ClaimTask(c *gin.Context) {
  var body struct {
    TaskTypes []string `json:"task_types"`
  }
  if err := c.ShouldBindJSON(&body); err != nil {
    RespondError(c, http.StatusBadRequest, "polis_err_param_parse_failed", err)
    return
  }
  task, err := h.svc.ClaimTask(c.Request.Context(), nil, body.TaskTypes)
  if err != nil {
    RespondAppError(c, err)
    return
  }
  if task == nil {
    c.Status(http.StatusNoContent)
    return
  }
  RespondOK(c, gin.H{"task": task})
}

// POST /api/internal/tasks/:task_id/finish
func (h *TasksHandler) FinishTask(c *gin.Context) {
  taskID, err := uuid.Parse(c.Param("task_id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "polis_err_param_parse_failed_task_id", err)
    return
  }
  if err := h.svc.FinishTask(c.Request.Context(), nil, taskID); err != nil {
    RespondAppError(c, err)
    return
  }
  RespondOK(c, gin.H{})
}

// POST /api/internal/math/results
// The engine posts the finished clustering blob (gzipped, base64 in JSON).
func (h *TasksHandler) PostClusteringResult(c *gin.Context) {
  var body struct {
    ConversationID string `json:"conversation_id" binding:"required"`
    MathTick       *int64 `json:"math_tick" binding:"required"`
    Data           []byte `json:"data" binding:"required"`
  }
  if err := c.ShouldBindJSON(&body); err != nil {
    RespondError(c, http.StatusBadRequest, "polis_err_param_parse_failed", err)
    return
  }
  conversationID, err := uuid.Parse(body.ConversationID)
  if err != nil {
    RespondError(c, http.StatusBadRequest, "polis_err_param_parse_failed_conversation_id", err)
    return
  }
  applied, err := h.svc.SubmitClustering(c.Request.Context(), nil, conversationID, *body.MathTick, body.Data)
  if err != nil {
    RespondAppError(c, err)
    return
  }
  RespondOK(c, gin.H{"applied": applied})
}

// POST /api/internal/reports/:report_id/correlation
func (h *TasksHandler) PostCorrelationResult(c *gin.Context) {
  reportID, err := uuid.Parse(c.Param("report_id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "polis_err_param_parse_failed_report_id", err)
    return
  }
  var body struct {
    MathTick *int64          `json:"math_tick" binding:"required"`
    Data     json.RawMessage `json:"data" binding:"required"`
  }
  if err := c.ShouldBindJSON(&body); err != nil {
    RespondError(c, http.StatusBadRequest, "polis_err_param_parse_failed", err)
    return
  }
  if err := h.svc.SubmitCorrelation(c.Request.Context(), nil, reportID, *body.MathTick, datatypes.JSON(body.Data)); err != nil {
    RespondAppError(c, err)
    return
  }
  RespondOK(c, gin.H{})
}
