package handlers

import (
  "net/http"
  "strconv"
  "strings"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/openagora/agora-backend/internal/logger"
  "github.com/openagora/agora-backend/internal/requestdata"
  "github.com/openagora/agora-backend/internal/services"
  "github.com/openagora/agora-backend/internal/types"
)

type MathHandler struct {
  log        *logger.Logger
  cache      services.MathCacheService
  dispatcher services.TaskDispatcherService
  moderation services.ModerationService
}

func NewMathHandler(log *logger.Logger, cache services.MathCacheService, dispatcher services.TaskDispatcherService, moderation services.ModerationService) *MathHandler {
  return &MathHandler{
    log:        log.With("handler", "MathHandler"),
    cache:      cache,
    dispatcher: dispatcher,
    moderation: moderation,
  }
}

// GET /api/v3/math/pca
// Retired path. Old clients polled it in a tight loop without waiting for the
// previous poll to return, so it answers 304 unconditionally.
func (h *MathHandler) GetPCA(c *gin.Context) {
  c.Status(http.StatusNotModified)
}

// parseMinTick resolves the effective tick floor from the math_tick query
// param or the If-None-Match header. The two are mutually exclusive. A
// multi-valued header takes the minimum across entries; "*" accepts anything
// cached (tick 0); neither input means -1 (best effort).
func parseMinTick(tickStr, ifNoneMatch string) (int64, string) {
  if ifNoneMatch != "" {
    if tickStr != "" {
      return 0, "polis_err_math_tick_or_etag"
    }
    if strings.Contains(ifNoneMatch, "*") {
      return 0, ""
    }
    minTick := int64(0)
    first := true
    for _, entry := range strings.Split(ifNoneMatch, ",") {
      entry = strings.TrimSpace(entry)
      entry = strings.TrimPrefix(entry, "W/")
      entry = strings.TrimPrefix(entry, "w/")
      entry = strings.Trim(entry, `"`)
      tick, err := strconv.ParseInt(entry, 10, 64)
      if err != nil {
        return 0, "polis_err_etag_parse_failed"
      }
      if first || tick < minTick {
        minTick = tick
        first = false
      }
    }
    return minTick, ""
  }
  if tickStr == "" {
    return -1, ""
  }
  tick, err := strconv.ParseInt(tickStr, 10, 64)
  if err != nil {
    return 0, "polis_err_math_tick_parse_failed"
  }
  return tick, ""
}

// GET /api/v3/math/pca2?conversation_id=&math_tick=
func (h *MathHandler) GetPCA2(c *gin.Context) {
  conversationID, err := uuid.Parse(c.Query("conversation_id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "polis_err_param_parse_failed_conversation_id", err)
    return
  }

  minTick, code := parseMinTick(c.Query("math_tick"), c.GetHeader("If-None-Match"))
  if code != "" {
    RespondError(c, http.StatusBadRequest, code, nil)
    return
  }

  res, err := h.cache.Lookup(c.Request.Context(), nil, conversationID, minTick)
  if err != nil {
    RespondAppError(c, err)
    return
  }
  if res != nil {
    // The blob is stored gzipped so each poll doesn't re-compress the same
    // JSON under load.
    c.Header("Content-Encoding", "gzip")
    c.Header("ETag", `"`+strconv.FormatInt(res.MathTick, 10)+`"`)
    c.Data(http.StatusOK, "application/json", res.Data)
    return
  }

  // Miss: seed the existence flag so the state is warm for later requests.
  // Stale-but-existing and never-existed both answer 304; clients keep
  // polling either way, and generic HTTP tooling doesn't see a spurious 404.
  if _, err := h.cache.ResultsExist(c.Request.Context(), nil, conversationID); err != nil {
    RespondAppError(c, err)
    return
  }
  c.Status(http.StatusNotModified)
}

// POST /api/v3/math/update
func (h *MathHandler) PostMathUpdate(c *gin.Context) {
  var body struct {
    ConversationID string `json:"conversation_id" binding:"required"`
    MathUpdateType string `json:"math_update_type" binding:"required"`
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

  rd := requestdata.GetRequestData(c.Request.Context())
  if rd == nil || rd.UserID == uuid.Nil {
    RespondError(c, http.StatusUnauthorized, "polis_err_auth_needed", nil)
    return
  }
  hasPermission, err := h.moderation.IsModerator(c.Request.Context(), nil, conversationID, rd.UserID)
  if err != nil {
    RespondError(c, http.StatusInternalServerError, "polis_err_POST_math_update", err)
    return
  }
  if !hasPermission {
    RespondError(c, http.StatusInternalServerError, "polis_err_POST_math_update_permission", nil)
    return
  }

  _, err = h.dispatcher.EnsureRequested(c.Request.Context(), nil, services.DispatchRequest{
    TaskType: types.TaskTypeUpdateMath,
    Bucket:   conversationID,
    MinTick:  0,
    Payload: map[string]interface{}{
      "zid":              conversationID.String(),
      "math_update_type": body.MathUpdateType,
    },
  })
  if err != nil {
    RespondError(c, http.StatusInternalServerError, "polis_err_POST_math_update", err)
    return
  }
  RespondOK(c, gin.H{})
}
