package model

import "github.com/haierkeys/fast-note-graph-service/pkg/timex"

const TableNameNoteLink = "note_link"

// NoteLink mapped from table <note_link>
type NoteLink struct {
	SourceNoteID string     `gorm:"column:source_note_id;type:varchar(36);primaryKey" json:"sourceNoteId" form:"sourceNoteId"`
	TargetNoteID string     `gorm:"column:target_note_id;type:varchar(36);primaryKey;index:idx_note_link_target" json:"targetNoteId" form:"targetNoteId"`
	OwnerID      int64      `gorm:"column:owner_id;not null;index:idx_note_link_owner" json:"ownerId" form:"ownerId"`
	CreatedAt    timex.Time `gorm:"column:created_at;autoCreateTime:false" json:"createdAt" form:"createdAt"`
}

// TableName NoteLink's table name
func (*NoteLink) TableName() string {
	return TableNameNoteLink
}
