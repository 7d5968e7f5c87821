package app

import (
	"strings"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
)

// TransKey gin context key holding the ut.Translator
// TransKey gin 上下文中保存翻译器的键
const TransKey = "trans"

type ValidError struct {
	Key     string
	Message string
}

type ValidErrors []*ValidError

func (v *ValidError) Error() string {
	return v.Message
}

func (v ValidErrors) Error() string {
	return strings.Join(v.Errors(), ",")
}

func (v ValidErrors) Errors() []string {
	var errs []string
	for _, err := range v {
		errs = append(errs, err.Error())
	}
	return errs
}

// ErrorsToString joins messages for the details field
// ErrorsToString 拼接错误信息用于 details 字段
func (v ValidErrors) ErrorsToString() string {
	return v.Error()
}

// MapsToString joins "key: message" pairs
func (v ValidErrors) MapsToString() string {
	parts := make([]string, 0, len(v))
	for _, err := range v {
		parts = append(parts, err.Key+": "+err.Message)
	}
	return strings.Join(parts, ",")
}

// BindAndValid binds the request into v and translates validation errors
// BindAndValid 绑定请求参数并翻译校验错误
func BindAndValid(c *gin.Context, v interface{}) (bool, ValidErrors) {
	var errs ValidErrors
	err := c.ShouldBind(v)
	if err == nil {
		return true, nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		errs = append(errs, &ValidError{Key: "body", Message: err.Error()})
		return false, errs
	}

	trans, hasTrans := c.Value(TransKey).(ut.Translator)
	for _, fe := range verrs {
		msg := fe.Error()
		if hasTrans {
			msg = fe.Translate(trans)
		}
		errs = append(errs, &ValidError{Key: fe.Field(), Message: msg})
	}
	return false, errs
}
