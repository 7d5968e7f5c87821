package convert

import (
	"testing"
	"time"

	"github.com/haierkeys/fast-note-graph-service/pkg/timex"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrTo(t *testing.T) {
	assert.Equal(t, 12, StrTo(" 12 ").MustInt())
	assert.Equal(t, 0, StrTo("x").MustInt())
	assert.Equal(t, int64(9007199254740993), StrTo("9007199254740993").MustInt64())

	b, err := StrTo("true").Bool()
	require.NoError(t, err)
	assert.True(t, b)
}

type noteRow struct {
	ID        string
	Title     string
	Body      string
	UpdatedAt time.Time
}

type noteView struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func TestStructAssign(t *testing.T) {
	now := time.Now()
	var view noteView
	require.NoError(t, StructAssign(&noteRow{ID: "a", Title: "A", Body: "text", UpdatedAt: now}, &view))

	assert.Equal(t, noteView{ID: "a", Title: "A", UpdatedAt: now}, view)
}

type noteStamped struct {
	ID        string
	UpdatedAt timex.Time
}

func TestStructAssignConvertsTime(t *testing.T) {
	now := time.Now()
	var out noteStamped
	require.NoError(t, StructAssign(&noteRow{ID: "a", UpdatedAt: now}, &out))

	assert.Equal(t, "a", out.ID)
	assert.True(t, time.Time(out.UpdatedAt).Equal(now))
}

func TestStructToMap(t *testing.T) {
	m, err := StructToMap(noteView{ID: "a", Title: "A"})
	require.NoError(t, err)
	assert.Equal(t, "a", m["id"])
	assert.Equal(t, "A", m["title"])
}
