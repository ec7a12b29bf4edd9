package types

import (
	"time"
	"github.com/google/uuid"
)

type Report struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID uuid.UUID `gorm:"type:uuid;column:zid;not null;index" json:"conversation_id"`
	CreatedAt      time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (Report) TableName() string { return "reports" }
