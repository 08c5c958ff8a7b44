package repository

import "errors"

var (
	// ErrNotFound 组件不存在或不属于请求方
	// 跨租户的ID与不存在的ID返回同一个错误，避免泄露存在性
	ErrNotFound = errors.New("component not found")

	// ErrConflict 并发写入已经推进了版本（乐观检查失败）
	ErrConflict = errors.New("version conflict")
)
