// Package code defines business result codes with bilingual messages
// Package code 定义带双语消息的业务结果码
package code

import (
	"fmt"
	"net/http"
)

// Code business result code
// Code 业务结果码
//
// Predefined codes are shared package variables, so every With* method
// returns a copy and leaves the receiver untouched.
type Code struct {
	// 状态码
	code int
	// 状态
	status bool
	// 多语言消息
	Lang lang
	// 数据
	data     interface{}
	haveData bool
	// 错误详细信息
	details     []string
	haveDetails bool
}

var codes = map[int]string{}
var sussCodes = map[int]string{}

// NewError registers a failure code, panics on duplicates
// NewError 注册错误码，重复注册会 panic
func NewError(code int, l lang) *Code {
	if _, ok := codes[code]; ok {
		panic(fmt.Sprintf("错误码 %d 已经存在，请更换一个", code))
	}
	codes[code] = l.en
	return &Code{code: code, status: false, Lang: l}
}

// NewSuss registers a success code, panics on duplicates
// NewSuss 注册成功码，重复注册会 panic
func NewSuss(code int, l lang) *Code {
	if _, ok := sussCodes[code]; ok {
		panic(fmt.Sprintf("成功码 %d 已经存在，请更换一个", code))
	}
	sussCodes[code] = l.en
	return &Code{code: code, status: true, Lang: l}
}

// Clone returns a copy without data or details
// Clone 创建一个不含数据与详情的副本
func (e *Code) Clone() *Code {
	return &Code{code: e.code, status: e.status, Lang: e.Lang}
}

func (e *Code) copy() *Code {
	c := *e
	return &c
}

func (e *Code) Error() string {
	if e.haveDetails && len(e.details) > 0 {
		return fmt.Sprintf("%s: %v", e.Lang.en, e.details)
	}
	return e.Lang.en
}

// Is matches another *Code with the same numeric code, for errors.Is
func (e *Code) Is(target error) bool {
	t, ok := target.(*Code)
	return ok && t.code == e.code && t.status == e.status
}

func (e *Code) Code() int {
	return e.code
}

func (e *Code) Status() bool {
	return e.status
}

// Msg returns the message in the process default language
// Msg 返回全局默认语言的消息
func (e *Code) Msg() string {
	return e.Lang.GetMessage()
}

// MsgIn returns the message in the given language
// MsgIn 返回指定语言的消息
func (e *Code) MsgIn(language string) string {
	return e.Lang.GetMessageIn(language)
}

func (e *Code) Details() []string {
	return e.details
}

func (e *Code) Data() interface{} {
	return e.data
}

func (e *Code) HaveDetails() bool {
	return e.haveDetails
}

func (e *Code) HaveData() bool {
	return e.haveData
}

func (e *Code) WithData(data interface{}) *Code {
	c := e.copy()
	c.haveData = true
	c.data = data
	return c
}

func (e *Code) WithDetails(details ...string) *Code {
	c := e.copy()
	c.haveDetails = true
	c.details = append([]string{}, details...)
	return c
}

// StatusCode HTTP status, business errors travel in the body
// StatusCode HTTP 状态码，业务错误通过响应体返回
func (e *Code) StatusCode() int {
	return http.StatusOK
}
