package i18n

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"
)

// 支持的语言
const (
	LocaleEN = "en-US"
	LocaleID = "id-ID"
	LocaleZH = "zh-CN"

	DefaultLocale = LocaleEN
)

const (
	localeHeader = "X-Locale"
	localeQuery  = "lang"
)

var supportedTags = []language.Tag{
	language.AmericanEnglish,
	language.MustParse(LocaleID),
	language.SimplifiedChinese,
}

var supportedLocales = []string{LocaleEN, LocaleID, LocaleZH}

var matcher = language.NewMatcher(supportedTags)

// NormalizeLocale 将任意语言标签映射到受支持的语言
func NormalizeLocale(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultLocale
	}
	tags, _, err := language.ParseAcceptLanguage(raw)
	if err != nil || len(tags) == 0 {
		return DefaultLocale
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return DefaultLocale
	}
	return supportedLocales[index]
}

// ResolveLocale 依次读取 lang 参数、X-Locale、Accept-Language
func ResolveLocale(c *gin.Context) string {
	if c == nil || c.Request == nil {
		return DefaultLocale
	}
	if v := strings.TrimSpace(c.Query(localeQuery)); v != "" {
		return NormalizeLocale(v)
	}
	if v := strings.TrimSpace(c.GetHeader(localeHeader)); v != "" {
		return NormalizeLocale(v)
	}
	return NormalizeLocale(c.GetHeader("Accept-Language"))
}

// T 获取翻译文本，缺失时回退默认语言，再回退 key
func T(locale, key string) string {
	if bundle, ok := messages[locale]; ok {
		if msg, ok := bundle[key]; ok {
			return msg
		}
	}
	if msg, ok := messages[DefaultLocale][key]; ok {
		return msg
	}
	return key
}

// Sprintf 获取带参数的翻译文本
func Sprintf(locale, key string, args ...interface{}) string {
	return fmt.Sprintf(T(locale, key), args...)
}
