package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openagora/agora-backend/internal/apierr"
	"github.com/openagora/agora-backend/internal/logger"
	"github.com/openagora/agora-backend/internal/services"
	"github.com/openagora/agora-backend/internal/types"
)

type fakeVoteLedger struct {
	recordErr error
	recorded  []services.VoteRequest
	votes     []*types.Vote
}

func (f *fakeVoteLedger) Record(ctx context.Context, tx *gorm.DB, req services.VoteRequest) (*types.Vote, error) {
	if f.recordErr != nil {
		return nil, f.recordErr
	}
	f.recorded = append(f.recorded, req)
	return &types.Vote{
		ID:             uuid.New(),
		ParticipantID:  req.ParticipantID,
		ConversationID: req.ConversationID,
		StatementID:    req.StatementID,
		Vote:           types.VoteAgree,
	}, nil
}

func (f *fakeVoteLedger) List(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID, participantID *uuid.UUID, statementID *uuid.UUID) ([]*types.Vote, error) {
	return f.votes, nil
}

func setupVotesRouter(t *testing.T, svc services.VoteLedgerService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	h := NewVotesHandler(log, svc)
	r := gin.New()
	r.GET("/api/v3/votes", h.GetVotes)
	r.POST("/api/v3/votes", h.PostVote)
	return r
}

func postVoteBody(t *testing.T, vote string) *bytes.Buffer {
	t.Helper()
	raw, err := json.Marshal(map[string]interface{}{
		"pid":             uuid.NewString(),
		"conversation_id": uuid.NewString(),
		"tid":             uuid.NewString(),
		"vote":            vote,
		"weight":          0.5,
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return bytes.NewBuffer(raw)
}

func TestPostVoteOK(t *testing.T) {
	svc := &fakeVoteLedger{}
	r := setupVotesRouter(t, svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v3/votes", postVoteBody(t, "agree"))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if len(svc.recorded) != 1 {
		t.Fatalf("recorded = %d, want 1", len(svc.recorded))
	}
	if svc.recorded[0].Value != "agree" || svc.recorded[0].Weight != 0.5 {
		t.Fatalf("unexpected request: %#v", svc.recorded[0])
	}
}

func TestPostVoteDuplicateMapsTo409(t *testing.T) {
	svc := &fakeVoteLedger{
		recordErr: apierr.New(http.StatusConflict, "polis_err_vote_duplicate", nil),
	}
	r := setupVotesRouter(t, svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v3/votes", postVoteBody(t, "agree"))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
	var envelope ErrorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if envelope.Error.Code != "polis_err_vote_duplicate" {
		t.Fatalf("code = %q", envelope.Error.Code)
	}
}

func TestPostVoteRejectsMissingFields(t *testing.T) {
	r := setupVotesRouter(t, &fakeVoteLedger{})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v3/votes", bytes.NewBufferString(`{"vote":"agree"}`))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestGetVotesFilters(t *testing.T) {
	svc := &fakeVoteLedger{votes: []*types.Vote{{ID: uuid.New()}}}
	r := setupVotesRouter(t, svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v3/votes?conversation_id="+uuid.NewString()+"&pid="+uuid.NewString(), nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v3/votes?conversation_id=nope", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}
