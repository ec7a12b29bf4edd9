package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/openagora/agora-backend/internal/logger"
	"github.com/openagora/agora-backend/internal/types"
)

// fakeTaskRepo emulates the store's atomic check-and-insert with a mutex, the
// same serialization the advisory lock provides in production.
type fakeTaskRepo struct {
	mu    sync.Mutex
	tasks []*types.WorkerTask
}

func taskTick(task *types.WorkerTask) int64 {
	var payload struct {
		MathTick int64 `json:"math_tick"`
	}
	_ = json.Unmarshal(task.TaskData, &payload)
	return payload.MathTick
}

func (f *fakeTaskRepo) Insert(ctx context.Context, tx *gorm.DB, task *types.WorkerTask) (*types.WorkerTask, error) {
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	f.tasks = append(f.tasks, task)
	return task, nil
}

func (f *fakeTaskRepo) GetPendingCovering(ctx context.Context, tx *gorm.DB, taskType string, bucket uuid.UUID, env string, minTick int64) (*types.WorkerTask, error) {
	for _, task := range f.tasks {
		if task.TaskType == taskType && task.TaskBucket == bucket && task.MathEnv == env &&
			task.FinishedTime == nil && taskTick(task) >= minTick {
			return task, nil
		}
	}
	return nil, nil
}

func (f *fakeTaskRepo) EnsurePending(ctx context.Context, tx *gorm.DB, task *types.WorkerTask, minTick int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, err := f.GetPendingCovering(ctx, tx, task.TaskType, task.TaskBucket, task.MathEnv, minTick)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}
	if _, err := f.Insert(ctx, tx, task); err != nil {
		return false, err
	}
	return true, nil
}

func (f *fakeTaskRepo) ClaimNextRunnable(ctx context.Context, tx *gorm.DB, taskTypes []string, env string, maxAttempts int) (*types.WorkerTask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, task := range f.tasks {
		if task.FinishedTime != nil || task.MathEnv != env || task.Attempts >= maxAttempts {
			continue
		}
		for _, tt := range taskTypes {
			if task.TaskType == tt {
				task.Attempts++
				return task, nil
			}
		}
	}
	return nil, nil
}

func (f *fakeTaskRepo) MarkFinished(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, task := range f.tasks {
		if task.ID == id {
			now := task.CreatedAt
			task.FinishedTime = &now
		}
	}
	return nil
}

func newTestDispatcher(t *testing.T, repo *fakeTaskRepo) TaskDispatcherService {
	t.Helper()
	log, err := logger.New("development")
	require.NoError(t, err)
	return NewTaskDispatcherService(nil, log, repo, "prod")
}

func TestEnsureRequestedConcurrentEnqueuesOnce(t *testing.T) {
	repo := &fakeTaskRepo{}
	svc := newTestDispatcher(t, repo)
	bucket := uuid.New()

	var wg sync.WaitGroup
	outcomes := make([]DispatchOutcome, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcome, err := svc.EnsureRequested(context.Background(), nil, DispatchRequest{
				TaskType: types.TaskTypeUpdateMath,
				Bucket:   bucket,
				MinTick:  2,
			})
			require.NoError(t, err)
			outcomes[i] = outcome
		}(i)
	}
	wg.Wait()

	require.Len(t, repo.tasks, 1)
	enqueued := 0
	for _, outcome := range outcomes {
		if outcome == DispatchEnqueued {
			enqueued++
		} else {
			require.Equal(t, DispatchAlreadyPending, outcome)
		}
	}
	require.Equal(t, 1, enqueued)
}

func TestEnsureRequestedDedupByCoverage(t *testing.T) {
	repo := &fakeTaskRepo{}
	svc := newTestDispatcher(t, repo)
	bucket := uuid.New()
	ctx := context.Background()

	outcome, err := svc.EnsureRequested(ctx, nil, DispatchRequest{
		TaskType: types.TaskTypeGenerateReportData,
		Bucket:   bucket,
		MinTick:  5,
	})
	require.NoError(t, err)
	require.Equal(t, DispatchEnqueued, outcome)

	// A lower floor is covered by the pending request for tick 5.
	outcome, err = svc.EnsureRequested(ctx, nil, DispatchRequest{
		TaskType: types.TaskTypeGenerateReportData,
		Bucket:   bucket,
		MinTick:  4,
	})
	require.NoError(t, err)
	require.Equal(t, DispatchAlreadyPending, outcome)
	require.Len(t, repo.tasks, 1)

	// A higher floor is not covered and gets its own task.
	outcome, err = svc.EnsureRequested(ctx, nil, DispatchRequest{
		TaskType: types.TaskTypeGenerateReportData,
		Bucket:   bucket,
		MinTick:  6,
	})
	require.NoError(t, err)
	require.Equal(t, DispatchEnqueued, outcome)
	require.Len(t, repo.tasks, 2)
}

func TestEnsureRequestedNormalizesNegativeTick(t *testing.T) {
	repo := &fakeTaskRepo{}
	svc := newTestDispatcher(t, repo)

	outcome, err := svc.EnsureRequested(context.Background(), nil, DispatchRequest{
		TaskType: types.TaskTypeUpdateMath,
		Bucket:   uuid.New(),
		MinTick:  -1,
	})
	require.NoError(t, err)
	require.Equal(t, DispatchEnqueued, outcome)
	require.Len(t, repo.tasks, 1)
	require.Equal(t, int64(0), taskTick(repo.tasks[0]))
}

func TestEnsureRequestedPreconditionFailed(t *testing.T) {
	repo := &fakeTaskRepo{}
	svc := newTestDispatcher(t, repo)

	outcome, err := svc.EnsureRequested(context.Background(), nil, DispatchRequest{
		TaskType: types.TaskTypeGenerateReportData,
		Bucket:   uuid.New(),
		MinTick:  0,
		Precondition: func(ctx context.Context, tx *gorm.DB) (bool, error) {
			return false, nil
		},
	})
	require.NoError(t, err)
	require.Equal(t, DispatchPreconditionFailed, outcome)
	require.Empty(t, repo.tasks)
}

func TestEnsureRequestedDistinctBucketsDoNotDedup(t *testing.T) {
	repo := &fakeTaskRepo{}
	svc := newTestDispatcher(t, repo)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		outcome, err := svc.EnsureRequested(ctx, nil, DispatchRequest{
			TaskType: types.TaskTypeUpdateMath,
			Bucket:   uuid.New(),
			MinTick:  0,
		})
		require.NoError(t, err)
		require.Equal(t, DispatchEnqueued, outcome)
	}
	require.Len(t, repo.tasks, 2)
}
