package tracing

import (
	"strings"
)

const (
	// DefaultMaxLength 默认最大属性长度
	DefaultMaxLength = 200

	// MaxKeyLength 存储键最大长度
	MaxKeyLength = 100
)

// maskPIILookup 需要掩码处理的属性名关键字
var maskPIILookup = []string{
	"email",
	"phone",
	"name",
	"address",
	"password",
	"secret",
	"token",
	"api_key",
}

// SafeAttributeValue 属性名包含敏感关键字时返回掩码值，否则按长度截断
func SafeAttributeValue(name string, value string, maxLength int) string {
	lowerName := strings.ToLower(name)
	for _, keyword := range maskPIILookup {
		if strings.Contains(lowerName, keyword) {
			return MaskPII(value)
		}
	}
	return TruncateString(value, maxLength)
}

// MaskPII 对个人敏感信息进行掩码处理
// "Jo" -> "J*", "Ann" -> "A*n", "jane@example.com" -> "ja************om"
func MaskPII(value string) string {
	if value == "" {
		return ""
	}

	runes := []rune(value)
	length := len(runes)

	switch {
	case length <= 1:
		return "*"
	case length == 2:
		return string(runes[0:1]) + "*"
	case length <= 4:
		return string(runes[0:1]) + strings.Repeat("*", length-2) + string(runes[length-1:])
	}
	return string(runes[0:2]) + strings.Repeat("*", length-4) + string(runes[length-2:])
}

// TruncateString 截断字符串，保留首尾并以省略号连接
func TruncateString(s string, maxLength int) string {
	runes := []rune(s)
	if len(runes) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return string(runes[:maxLength])
	}

	half := (maxLength - 3) / 2
	if half < 1 {
		half = 1
	}
	return string(runes[:half]) + "..." + string(runes[len(runes)-half:])
}

// SafeStoreKey 安全处理存储键
func SafeStoreKey(key string) string {
	return TruncateString(key, MaxKeyLength)
}
