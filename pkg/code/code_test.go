package code

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithDetails_DoesNotMutateShared(t *testing.T) {
	withDetails := ErrorNoteNotFound.WithDetails("id=abc")

	assert.True(t, withDetails.HaveDetails())
	assert.Equal(t, []string{"id=abc"}, withDetails.Details())
	assert.False(t, ErrorNoteNotFound.HaveDetails())
	assert.Equal(t, ErrorNoteNotFound.Code(), withDetails.Code())
}

func TestWithData(t *testing.T) {
	c := Success.WithData(map[string]int{"n": 1})
	assert.True(t, c.HaveData())
	assert.False(t, Success.HaveData())
	assert.True(t, c.Status())
}

func TestErrorsIs(t *testing.T) {
	var err error = ErrorNoteTitleExists.WithDetails("Title")
	assert.True(t, errors.Is(err, ErrorNoteTitleExists))
	assert.False(t, errors.Is(err, ErrorNoteNotFound))
}

func TestMsgIn(t *testing.T) {
	tests := []struct {
		name     string
		language string
		expected string
	}{
		{"english", "en", "Note not found"},
		{"chinese", "zh_cn", "笔记不存在"},
		{"unknown falls back", "fr", "Note not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ErrorNoteNotFound.MsgIn(tt.language))
		})
	}
}

func TestSetGlobalDefaultLang(t *testing.T) {
	defer SetGlobalDefaultLang(FALLBACK_LNG)

	assert.NoError(t, SetGlobalDefaultLang("zh_cn"))
	assert.Equal(t, "成功", Success.Msg())

	assert.Error(t, SetGlobalDefaultLang("xx"))
	assert.Equal(t, FALLBACK_LNG, GetGlobalDefaultLang())
}

func TestNewError_DuplicatePanics(t *testing.T) {
	assert.Panics(t, func() { NewError(ErrorDBQuery.Code(), lang{en: "dup"}) })
}
