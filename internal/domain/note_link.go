package domain

import (
	"context"
	"time"
)

// NoteLink a directed edge from the note whose body contains [[Title]] to the note titled Title
type NoteLink struct {
	SourceNoteID string
	TargetNoteID string
	OwnerID      int64
	CreatedAt    time.Time
}

// ReconcileResult edge changes made for one content write
type ReconcileResult struct {
	Inserted int
	Deleted  int
	Kept     int
}

// Changed reports whether any edge was added or removed
func (r *ReconcileResult) Changed() bool {
	return r != nil && (r.Inserted > 0 || r.Deleted > 0)
}

// GraphNode 图谱节点
type GraphNode struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// GraphEdge 图谱边
type GraphEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// NoteGraph 所有者的完整链接图谱
type NoteGraph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// GraphAction what caused a graph change
type GraphAction string

const (
	GraphActionCreate  GraphAction = "create"
	GraphActionUpdate  GraphAction = "update"
	GraphActionDelete  GraphAction = "delete"
	GraphActionReindex GraphAction = "reindex"
)

// GraphChangedEvent is emitted after a committed write changed the owner's graph
type GraphChangedEvent struct {
	OwnerID  int64       `json:"-"`
	NoteID   string      `json:"noteId"`
	Action   GraphAction `json:"action"`
	Inserted int         `json:"inserted"`
	Deleted  int         `json:"deleted"`
}

// GraphNotifier delivers graph change events to subscribers.
// Implementations must not block the caller for long.
type GraphNotifier interface {
	NotifyGraphChanged(ctx context.Context, event GraphChangedEvent)
}

// NopGraphNotifier drops every event
type NopGraphNotifier struct{}

func (NopGraphNotifier) NotifyGraphChanged(context.Context, GraphChangedEvent) {}
