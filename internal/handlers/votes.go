package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/openagora/agora-backend/internal/logger"
  "github.com/openagora/agora-backend/internal/services"
)

type VotesHandler struct {
  log *logger.Logger
  svc services.VoteLedgerService
}

func NewVotesHandler(log *logger.Logger, svc services.VoteLedgerService) *VotesHandler {
  return &VotesHandler{
    log: log.With("handler", "VotesHandler"),
    svc: svc,
  }
}

type postVoteRequest struct {
  ParticipantID  string  `json:"pid" binding:"required"`
  ConversationID string  `json:"conversation_id" binding:"required"`
  StatementID    string  `json:"tid" binding:"required"`
  Vote           string  `json:"vote" binding:"required"`
  Weight         float64 `json:"weight"`
  HighPriority   bool    `json:"high_priority"`
  XID            string  `json:"xid"`
}

// POST /api/v3/votes
func (h *VotesHandler) PostVote(c *gin.Context) {
  var body postVoteRequest
  if err := c.ShouldBindJSON(&body); err != nil {
    RespondError(c, http.StatusBadRequest, "polis_err_param_parse_failed", err)
    return
  }
  participantID, err := uuid.Parse(body.ParticipantID)
  if err != nil {
    RespondError(c, http.StatusBadRequest, "polis_err_param_parse_failed_pid", err)
    return
  }
  conversationID, err := uuid.Parse(body.ConversationID)
  if err != nil {
    RespondError(c, http.StatusBadRequest, "polis_err_param_parse_failed_conversation_id", err)
    return
  }
  statementID, err := uuid.Parse(body.StatementID)
  if err != nil {
    RespondError(c, http.StatusBadRequest, "polis_err_param_parse_failed_tid", err)
    return
  }

  vote, err := h.svc.Record(c.Request.Context(), nil, services.VoteRequest{
    ParticipantID:  participantID,
    ConversationID: conversationID,
    StatementID:    statementID,
    Value:          body.Vote,
    Weight:         body.Weight,
    HighPriority:   body.HighPriority,
    XID:            body.XID,
  })
  if err != nil {
    RespondAppError(c, err)
    return
  }
  RespondOK(c, gin.H{"vote": vote})
}

// GET /api/v3/votes?conversation_id=&pid=&tid=
func (h *VotesHandler) GetVotes(c *gin.Context) {
  conversationID, err := uuid.Parse(c.Query("conversation_id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "polis_err_param_parse_failed_conversation_id", err)
    return
  }
  var participantID *uuid.UUID
  if pidStr := c.Query("pid"); pidStr != "" {
    pid, perr := uuid.Parse(pidStr)
    if perr != nil {
      RespondError(c, http.StatusBadRequest, "polis_err_param_parse_failed_pid", perr)
      return
    }
    participantID = &pid
  }
  var statementID *uuid.UUID
  if tidStr := c.Query("tid"); tidStr != "" {
    tid, terr := uuid.Parse(tidStr)
    if terr != nil {
      RespondError(c, http.StatusBadRequest, "polis_err_param_parse_failed_tid", terr)
      return
    }
    statementID = &tid
  }

  votes, err := h.svc.List(c.Request.Context(), nil, conversationID, participantID, statementID)
  if err != nil {
    RespondAppError(c, err)
    return
  }
  RespondOK(c, gin.H{"votes": votes})
}
