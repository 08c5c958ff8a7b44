package service

import "errors"

// ErrInvalidFramework 请求的框架不在支持集合里
var ErrInvalidFramework = errors.New("不支持的框架，可选值: react, html")

// GenerationError 模型生成失败
// 失败的轮次已经作为带错误标记的消息对落库，不产生新版本
type GenerationError struct {
	Reason string
}

func (e *GenerationError) Error() string {
	return "生成失败: " + e.Reason
}
