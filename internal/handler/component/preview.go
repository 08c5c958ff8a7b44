package component

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Preview 沙箱预览文档
// @Summary      组件预览
// @Description  装配组件的沙箱预览文档，直接作为 iframe 的 src 使用。有活跃编辑会话时反映缓冲区内容。
// @Tags         组件编辑
// @Produce      html
// @Param        id   path      string  true  "组件ID"
// @Success      200  {string}  string  "完整 HTML 文档"
// @Failure      404  {object}  ErrorResponse  "组件不存在"
// @Failure      422  {object}  ErrorResponse  "预览装配失败"
// @Router       /api/v1/components/{id}/preview [get]
func (h *Handler) Preview(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	doc, err := h.studio.Preview(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	// iframe 加载的是独立文档，禁止被缓存成陈旧预览
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(doc))
}
