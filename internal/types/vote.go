package types

import (
	"time"
	"github.com/google/uuid"
)

// Vote value encoding. Agree is -1 and disagree is 1; the sign convention is
// part of the stored-data contract and must not change.
const (
	VoteAgree    = -1
	VoteDisagree = 1
	VotePass     = 0
)

type Vote struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ParticipantID  uuid.UUID `gorm:"type:uuid;column:pid;not null;uniqueIndex:idx_votes_pid_zid_tid" json:"pid"`
	ConversationID uuid.UUID `gorm:"type:uuid;column:zid;not null;uniqueIndex:idx_votes_pid_zid_tid;index" json:"conversation_id"`
	StatementID    uuid.UUID `gorm:"type:uuid;column:tid;not null;uniqueIndex:idx_votes_pid_zid_tid" json:"tid"`
	Vote           int       `gorm:"column:vote;not null" json:"vote"`
	WeightX32767   int16     `gorm:"column:weight_x_32767;not null;default:0" json:"weight_x_32767"`
	HighPriority   bool      `gorm:"column:high_priority;not null;default:false" json:"high_priority"`
	Created        time.Time `gorm:"column:created;not null;default:now()" json:"created"`
}

func (Vote) TableName() string { return "votes" }
