package types

import (
	"time"
	"github.com/google/uuid"
)

type Conversation struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID         uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id"`
	Topic           string    `gorm:"column:topic" json:"topic"`
	IsActive        bool      `gorm:"column:is_active;not null;default:true" json:"is_active"`
	UseXIDWhitelist bool      `gorm:"column:use_xid_whitelist;not null;default:false" json:"use_xid_whitelist"`
	CreatedAt       time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt       time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Conversation) TableName() string { return "conversations" }
