package types

import (
	"time"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type CorrelationResult struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ReportID  uuid.UUID      `gorm:"type:uuid;column:rid;not null;index:idx_correlation_rid_env" json:"report_id"`
	MathEnv   string         `gorm:"column:math_env;not null;index:idx_correlation_rid_env" json:"math_env"`
	MathTick  int64          `gorm:"column:math_tick;not null" json:"math_tick"`
	Data      datatypes.JSON `gorm:"type:jsonb;column:data" json:"data"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (CorrelationResult) TableName() string { return "math_report_correlationmatrix" }
