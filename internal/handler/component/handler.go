package component

import (
	"atelier/internal/service"
)

// Handler 组件处理器
// 所有组件相关的Handler方法都通过这个结构体访问Service
type Handler struct {
	studio *service.StudioService
}

// NewHandler 创建组件处理器
func NewHandler(studio *service.StudioService) *Handler {
	return &Handler{
		studio: studio,
	}
}
