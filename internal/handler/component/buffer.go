package component

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"atelier/internal/model"
	httputil "atelier/internal/pkg/http"
)

// VersionInfo 版本信息 DTO
type VersionInfo struct {
	Number    int    `json:"number"`     // 版本号，从1开始连续
	Code      string `json:"code"`       // 该版本的完整代码
	Summary   string `json:"summary"`    // 版本摘要
	CreatedAt string `json:"created_at"` // 创建时间
}

func toVersionInfoList(versions []*model.CodeVersion) []VersionInfo {
	list := make([]VersionInfo, len(versions))
	for i, v := range versions {
		list[i] = VersionInfo{
			Number:    v.Number,
			Code:      v.Code,
			Summary:   v.Summary,
			CreatedAt: v.CreatedAt.Format(time.RFC3339),
		}
	}
	return list
}

// UpdateBuffer 接收编辑器缓冲区内容
// @Summary      提交编辑缓冲区
// @Description  接收编辑器当前缓冲区，由同步协调器防抖后写回组件。
// @Tags         组件编辑
// @Accept       json
// @Produce      json
// @Param        id       path      string  true  "组件ID"
// @Param        request  body      model.BufferRequest  true  "缓冲区内容"
// @Success      200      {object}  httputil.SuccessResponse  "已接收"
// @Failure      404      {object}  ErrorResponse  "组件不存在"
// @Router       /api/v1/components/{id}/buffer [put]
func (h *Handler) UpdateBuffer(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	var req model.BufferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    40001,
			Message: "Invalid request body",
			Detail:  err.Error(),
		})
		return
	}

	if err := h.studio.UpdateBuffer(c.Request.Context(), uid, c.Param("id"), req.Content); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httputil.NewSuccessResponse("已接收", nil))
}

// ListVersions 查询版本历史
// @Summary      版本历史
// @Description  查询组件的版本历史，按版本号升序。
// @Tags         组件编辑
// @Produce      json
// @Param        id   path      string  true  "组件ID"
// @Success      200  {object}  httputil.SuccessResponse  "版本列表"
// @Failure      404  {object}  ErrorResponse  "组件不存在"
// @Router       /api/v1/components/{id}/versions [get]
func (h *Handler) ListVersions(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	versions, err := h.studio.ListVersions(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httputil.NewSuccessResponse("ok", toVersionInfoList(versions)))
}
