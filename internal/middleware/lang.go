package middleware

import (
	"strings"

	"github.com/haierkeys/fast-note-graph-service/pkg/app"
	"github.com/haierkeys/fast-note-graph-service/pkg/code"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
	"golang.org/x/text/language"
)

var langMatcher = language.NewMatcher([]language.Tag{
	language.English,
	language.SimplifiedChinese,
})

// LangWithTranslator 创建带翻译器的语言中间件（支持依赖注入）
// 优先级: ?lang= > lang 请求头 > Accept-Language
func LangWithTranslator(uni *ut.UniversalTranslator) gin.HandlerFunc {

	return func(c *gin.Context) {

		var lang string

		if s, exist := c.GetQuery("lang"); exist {
			lang = s
		} else if s = c.GetHeader("lang"); len(s) != 0 {
			lang = s
		}

		lang = normalizeLang(lang)
		if lang == "" {
			lang = matchAcceptLanguage(c.GetHeader("Accept-Language"))
		}

		trans, found := uni.GetTranslator(transLocale(lang))
		if !found {
			trans, _ = uni.GetTranslator("en")
		}

		c.Set(app.LangKey, lang)
		c.Set(app.TransKey, trans)

		c.Next()
	}
}

// normalizeLang maps "zh-CN", "zh_cn", "zh" to "zh_cn"; unknown values give ""
func normalizeLang(s string) string {
	s = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
	switch {
	case s == "":
		return ""
	case strings.HasPrefix(s, "zh"):
		return "zh_cn"
	case code.IsSupportedLang(s):
		return s
	case strings.HasPrefix(s, "en"):
		return "en"
	}
	return ""
}

func matchAcceptLanguage(header string) string {
	if header == "" {
		return code.GetGlobalDefaultLang()
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return code.GetGlobalDefaultLang()
	}
	tag, _, _ := langMatcher.Match(tags...)
	base, _ := tag.Base()
	if base.String() == "zh" {
		return "zh_cn"
	}
	return "en"
}

// transLocale maps a response language to a validator translator locale
func transLocale(lang string) string {
	if lang == "zh_cn" {
		return "zh"
	}
	return "en"
}
