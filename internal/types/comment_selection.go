package types

import (
	"time"
	"github.com/google/uuid"
)

// CommentSelection marks a statement as included in a report. Selection is 1
// for included, -1 for excluded, 0 for unreviewed.
type CommentSelection struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ReportID    uuid.UUID `gorm:"type:uuid;column:rid;not null;uniqueIndex:idx_comment_selection_rid_tid" json:"report_id"`
	StatementID uuid.UUID `gorm:"type:uuid;column:tid;not null;uniqueIndex:idx_comment_selection_rid_tid" json:"tid"`
	Selection   int       `gorm:"column:selection;not null;default:0" json:"selection"`
	CreatedAt   time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (CommentSelection) TableName() string { return "report_comment_selections" }
