package types

import (
	"time"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	TaskTypeUpdateMath         = "update_math"
	TaskTypeGenerateReportData = "generate_report_data"
)

// WorkerTask rows are claimed by external worker processes and never deleted
// by the API; finished_time doubles as the completion marker.
type WorkerTask struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TaskType     string         `gorm:"column:task_type;not null;index:idx_worker_tasks_type_bucket_env" json:"task_type"`
	TaskData     datatypes.JSON `gorm:"type:jsonb;column:task_data" json:"task_data"`
	TaskBucket   uuid.UUID      `gorm:"type:uuid;column:task_bucket;not null;index:idx_worker_tasks_type_bucket_env" json:"task_bucket"`
	MathEnv      string         `gorm:"column:math_env;not null;index:idx_worker_tasks_type_bucket_env" json:"math_env"`
	Attempts     int            `gorm:"column:attempts;not null;default:0" json:"attempts"`
	FinishedTime *time.Time     `gorm:"column:finished_time;index" json:"finished_time,omitempty"`
	LockedAt     *time.Time     `gorm:"column:locked_at" json:"locked_at,omitempty"`
	CreatedAt    time.Time      `gorm:"not null;default:now();index" json:"created_at"`
}

func (WorkerTask) TableName() string { return "worker_tasks" }
