package types

import (
	"time"
	"github.com/google/uuid"
)

// ClusteringResult holds the newest computed artifact per (conversation, env).
// Data is the gzipped JSON blob exactly as served; rows are superseded by a
// strictly greater math_tick, never mutated otherwise.
type ClusteringResult struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID uuid.UUID `gorm:"type:uuid;column:zid;not null;uniqueIndex:idx_clustering_result_zid_env" json:"conversation_id"`
	MathEnv        string    `gorm:"column:math_env;not null;uniqueIndex:idx_clustering_result_zid_env" json:"math_env"`
	MathTick       int64     `gorm:"column:math_tick;not null" json:"math_tick"`
	Data           []byte    `gorm:"type:bytea;column:data" json:"-"`
	UpdatedAt      time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (ClusteringResult) TableName() string { return "clustering_result" }
