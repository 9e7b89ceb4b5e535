package i18n

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
)

// 支持的语言常量
const (
	LocaleZH = "zh-CN"
	LocaleTW = "zh-TW"
	LocaleEN = "en"
)

const defaultLocale = LocaleZH

// ResolveLocale 解析请求语言
// 优先级：query 参数 lang > Cookie rn_lang > Accept-Language > 默认值
func ResolveLocale(c *gin.Context) string {
	if c == nil {
		return defaultLocale
	}
	if lang := strings.TrimSpace(c.Query("lang")); lang != "" {
		return Normalize(lang)
	}
	if lang, err := c.Cookie("rn_lang"); err == nil && strings.TrimSpace(lang) != "" {
		return Normalize(lang)
	}
	if header := strings.TrimSpace(c.GetHeader("Accept-Language")); header != "" {
		first := strings.SplitN(header, ",", 2)[0]
		first = strings.SplitN(first, ";", 2)[0]
		return Normalize(first)
	}
	return defaultLocale
}

// Normalize 统一语言标识
func Normalize(locale string) string {
	l := strings.ToLower(strings.TrimSpace(locale))
	switch {
	case strings.HasPrefix(l, "zh-tw"), strings.HasPrefix(l, "zh-hk"), strings.HasPrefix(l, "zh-mo"):
		return LocaleTW
	case strings.HasPrefix(l, "en"):
		return LocaleEN
	default:
		return LocaleZH
	}
}

// T 返回指定语言的文案；找不到时返回 key 本身
func T(locale, key string) string {
	table, ok := messages[Normalize(locale)]
	if !ok {
		table = messages[defaultLocale]
	}
	if msg, ok := table[key]; ok {
		return msg
	}
	if msg, ok := messages[defaultLocale][key]; ok {
		return msg
	}
	return key
}

// Sprintf 返回带参数格式化的文案
func Sprintf(locale, key string, args ...interface{}) string {
	template := T(locale, key)
	if template == key || len(args) == 0 {
		return template
	}
	return fmt.Sprintf(template, args...)
}
