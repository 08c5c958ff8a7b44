package model

import "time"

// GenerateComponentResponse 新建生成响应
type GenerateComponentResponse struct {
	ID      string `json:"id"`
	Code    string `json:"code"`
	Version int    `json:"version"`
	Name    string `json:"name"`
}

// ChatResponse 会话式更新响应
type ChatResponse struct {
	Code    string `json:"code"`
	Version int    `json:"version"`
}

// ComponentSummary 组件列表项
type ComponentSummary struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Framework    Framework `json:"framework"`
	Version      int       `json:"version"`
	MessageCount int       `json:"message_count"`
	LastActivity time.Time `json:"last_activity"`
	CreatedAt    time.Time `json:"created_at"`
}

// ComponentDetail 组件详情（含完整有序对话）
type ComponentDetail struct {
	Component    *Component             `json:"component"`
	Conversation []*ConversationMessage `json:"conversation"`
}
