package id

import (
	"strings"

	"github.com/google/uuid"
)

// New 生成新的UUID（string格式）
func New() string {
	return uuid.New().String()
}

// NewCompact 生成无连字符的UUID
// 组件ID使用这种紧凑格式（32位小写十六进制）
func NewCompact() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// IsValid 验证UUID格式是否有效
func IsValid(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
