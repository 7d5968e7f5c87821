// Package domain 定义领域模型和接口
package domain

import (
	"errors"
	"time"
)

var (
	// ErrNoteNotFound the note does not exist or belongs to another owner
	ErrNoteNotFound = errors.New("note not found")
	// ErrNoteTitleExists the owner already has a note with this title
	ErrNoteTitleExists = errors.New("note title already exists")
)

// Note 笔记领域模型
type Note struct {
	ID        string
	OwnerID   int64
	Title     string
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ResolvedTitle a link title matched to a note of the same owner
type ResolvedTitle struct {
	Title  string
	NoteID string
}

// LinkResolution result of resolving link titles
type LinkResolution struct {
	Resolved   []ResolvedTitle
	Unresolved []string
}

// TargetIDs returns the resolved note ids without duplicates, in resolution order
func (r *LinkResolution) TargetIDs() []string {
	if r == nil {
		return []string{}
	}
	seen := make(map[string]struct{}, len(r.Resolved))
	out := make([]string, 0, len(r.Resolved))
	for _, rt := range r.Resolved {
		if _, ok := seen[rt.NoteID]; ok {
			continue
		}
		seen[rt.NoteID] = struct{}{}
		out = append(out, rt.NoteID)
	}
	return out
}
