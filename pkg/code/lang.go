package code

import (
	"errors"
	"sync/atomic"
)

// lang type, used to store English and Chinese text
// lang 类型，用来存储英文和中文文本
type lang struct {
	en    string // English // 英文
	zh_cn string // Chinese // 中文
}

const FALLBACK_LNG = "en"

// Default language is English // 默认语言为英文
var lng atomic.Value

func init() {
	lng.Store(FALLBACK_LNG)
}

// GetMessage returns the message in the global default language
// GetMessage 返回全局默认语言的消息
func (l lang) GetMessage() string {
	return l.GetMessageIn(GetGlobalDefaultLang())
}

// GetMessageIn returns the message for language, falling back to English
// GetMessageIn 根据语言返回消息，缺失时回退到英文
func (l lang) GetMessageIn(language string) string {
	switch language {
	case "zh_cn":
		if l.zh_cn != "" {
			return l.zh_cn
		}
	case "en":
		if l.en != "" {
			return l.en
		}
	}
	if l.en != "" {
		return l.en
	}
	return "No message available for language: " + language
}

// GetSupportedLanguages returns all languages supported by the lang type
// GetSupportedLanguages 返回 lang 类型支持的所有语言
func GetSupportedLanguages() []string {
	return []string{"en", "zh_cn"}
}

// IsSupportedLang reports whether language has messages
// IsSupportedLang 判断语言是否受支持
func IsSupportedLang(language string) bool {
	for _, l := range GetSupportedLanguages() {
		if l == language {
			return true
		}
	}
	return false
}

// SetGlobalDefaultLang sets the global default language
// 设置全局默认语言
func SetGlobalDefaultLang(language string) error {
	if IsSupportedLang(language) {
		lng.Store(language)
		return nil
	}
	lng.Store(FALLBACK_LNG)
	return errors.New("unsupported language type, set defaulting to " + FALLBACK_LNG)
}

// GetGlobalDefaultLang gets the global default language
// 获取全局默认语言
func GetGlobalDefaultLang() string {
	return lng.Load().(string)
}
