package types

import (
	"time"
	"github.com/google/uuid"
)

type XIDWhitelistEntry struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID   uuid.UUID `gorm:"type:uuid;column:owner_id;not null;uniqueIndex:idx_xid_whitelist_owner_xid" json:"owner_id"`
	XID       string    `gorm:"column:xid;not null;uniqueIndex:idx_xid_whitelist_owner_xid" json:"xid"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (XIDWhitelistEntry) TableName() string { return "xid_whitelist" }
