package validator

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noteForm struct {
	Title string `json:"title" binding:"required,max=255,linktitle"`
	Body  string `json:"body"`
}

func TestIsLinkableTitle(t *testing.T) {
	tests := []struct {
		title string
		want  bool
	}{
		{"Y", true},
		{" spaced ", true},
		{"笔记", true},
		{"", false},
		{"two\nlines", false},
		{"has ]] closer", false},
		{"has [[ opener", false},
		{"single [ bracket ]", true},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, IsLinkableTitle(tt.title))
		})
	}
}

func TestCustomValidator_LinkTitle(t *testing.T) {
	prev := binding.Validator
	defer func() { binding.Validator = prev }()

	v := NewCustomValidator()
	binding.Validator = v
	require.NoError(t, RegisterCustom())

	assert.NoError(t, v.ValidateStruct(&noteForm{Title: "Ok"}))
	assert.Error(t, v.ValidateStruct(&noteForm{Title: "bad]]"}))
	assert.Error(t, v.ValidateStruct(&noteForm{}))
	assert.Error(t, v.ValidateStruct([]noteForm{{Title: "a"}, {Title: ""}}))
	assert.NoError(t, v.ValidateStruct(nil))
}

func TestSetup(t *testing.T) {
	prev := binding.Validator
	defer func() { binding.Validator = prev }()

	uni, err := Setup()
	require.NoError(t, err)
	require.NotNil(t, uni)

	_, found := uni.GetTranslator("zh")
	assert.True(t, found)

	assert.Error(t, binding.Validator.ValidateStruct(&noteForm{Title: "[[x"}))
	assert.NoError(t, binding.Validator.ValidateStruct(&noteForm{Title: "x"}))
}
