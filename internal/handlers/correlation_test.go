package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/openagora/agora-backend/internal/logger"
	"github.com/openagora/agora-backend/internal/services"
)

type fakeCorrelationService struct {
	outcome  *services.CorrelationOutcome
	err      error
	minTicks []int64
}

func (f *fakeCorrelationService) Matrix(ctx context.Context, tx *gorm.DB, reportID uuid.UUID, minTick int64) (*services.CorrelationOutcome, error) {
	f.minTicks = append(f.minTicks, minTick)
	return f.outcome, f.err
}

func setupCorrelationRouter(t *testing.T, svc services.CorrelationService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	r := gin.New()
	r.GET("/api/v3/math/correlationMatrix", NewCorrelationHandler(log, svc).GetCorrelationMatrix)
	return r
}

func TestGetCorrelationMatrixReady(t *testing.T) {
	svc := &fakeCorrelationService{outcome: &services.CorrelationOutcome{
		Ready: true,
		Data:  datatypes.JSON(`{"matrix":[[1,0.5],[0.5,1]]}`),
	}}
	r := setupCorrelationRouter(t, svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v3/math/correlationMatrix?report_id="+uuid.NewString()+"&math_tick=4", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Body.String() != `{"matrix":[[1,0.5],[0.5,1]]}` {
		t.Fatalf("body = %q", w.Body.String())
	}
	if len(svc.minTicks) != 1 || svc.minTicks[0] != 4 {
		t.Fatalf("minTicks = %v, want [4]", svc.minTicks)
	}
}

func TestGetCorrelationMatrixPending(t *testing.T) {
	svc := &fakeCorrelationService{outcome: &services.CorrelationOutcome{}}
	r := setupCorrelationRouter(t, svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v3/math/correlationMatrix?report_id="+uuid.NewString(), nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "pending" {
		t.Fatalf("status field = %q", body["status"])
	}
	// No math_tick param means best effort.
	if len(svc.minTicks) != 1 || svc.minTicks[0] != -1 {
		t.Fatalf("minTicks = %v, want [-1]", svc.minTicks)
	}
}

func TestGetCorrelationMatrixNeedsSelection(t *testing.T) {
	svc := &fakeCorrelationService{outcome: &services.CorrelationOutcome{NeedsSelection: true}}
	r := setupCorrelationRouter(t, svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v3/math/correlationMatrix?report_id="+uuid.NewString(), nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "polis_report_needs_comment_selection" {
		t.Fatalf("status field = %q", body["status"])
	}
}

func TestGetCorrelationMatrixBadParams(t *testing.T) {
	svc := &fakeCorrelationService{outcome: &services.CorrelationOutcome{}}
	r := setupCorrelationRouter(t, svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v3/math/correlationMatrix?report_id=not-a-uuid", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad report_id: status = %d, want 400", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v3/math/correlationMatrix?report_id="+uuid.NewString()+"&math_tick=soon", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad math_tick: status = %d, want 400", w.Code)
	}
	if len(svc.minTicks) != 0 {
		t.Fatalf("service should not be reached on parse failures, got %v", svc.minTicks)
	}
}
