package model

import "github.com/haierkeys/fast-note-graph-service/pkg/timex"

const TableNameNote = "note"

// Note mapped from table <note>
type Note struct {
	ID        string     `gorm:"column:id;type:varchar(36);primaryKey" json:"id" form:"id"`
	OwnerID   int64      `gorm:"column:owner_id;not null;uniqueIndex:idx_note_owner_title,priority:1;index:idx_note_owner_updated,priority:1" json:"ownerId" form:"ownerId"`
	Title     string     `gorm:"column:title;type:varchar(255);not null;uniqueIndex:idx_note_owner_title,priority:2" json:"title" form:"title"`
	Body      string     `gorm:"column:body;type:text;not null" json:"body" form:"body"`
	CreatedAt timex.Time `gorm:"column:created_at;autoCreateTime:false" json:"createdAt" form:"createdAt"`
	UpdatedAt timex.Time `gorm:"column:updated_at;autoUpdateTime:false;index:idx_note_owner_updated,priority:2" json:"updatedAt" form:"updatedAt"`
}

// TableName Note's table name
func (*Note) TableName() string {
	return TableNameNote
}
