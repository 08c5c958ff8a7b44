package component

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"atelier/internal/model"
)

// Generate 新建组件并执行首次生成
// @Summary      生成组件
// @Description  根据提示词新建组件并执行首次生成，可附带参考图（multipart 的 image 字段）。
// @Tags         组件生成
// @Accept       multipart/form-data
// @Produce      json
// @Param        framework  formData  string  true   "目标框架：react, html"
// @Param        prompt     formData  string  true   "组件描述"
// @Param        image      formData  file    false  "参考图"
// @Success      200  {object}  model.GenerateComponentResponse  "生成结果"
// @Failure      400  {object}  ErrorResponse  "请求参数错误"
// @Failure      500  {object}  ErrorResponse  "生成失败"
// @Router       /api/v1/components/generate [post]
func (h *Handler) Generate(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	var req model.GenerateComponentRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    40001,
			Message: "Invalid request body",
			Detail:  err.Error(),
		})
		return
	}

	image, imageMIME, err := readImageFile(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    40002,
			Message: "参考图读取失败",
			Detail:  err.Error(),
		})
		return
	}

	resp, err := h.studio.Generate(c.Request.Context(), uid, &req, image, imageMIME)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Chat 对已有组件的会话式更新
// @Summary      会话式更新组件
// @Description  在已有组件的对话上下文里继续生成，可附带参考图。同一组件同时只允许一次生成。
// @Tags         组件生成
// @Accept       multipart/form-data
// @Produce      json
// @Param        id       path      string  true   "组件ID"
// @Param        message  formData  string  true   "修改描述"
// @Param        image    formData  file    false  "参考图"
// @Success      200  {object}  model.ChatResponse  "生成结果"
// @Failure      404  {object}  ErrorResponse  "组件不存在"
// @Failure      409  {object}  ErrorResponse  "组件正在生成中"
// @Router       /api/v1/components/{id}/chat [post]
func (h *Handler) Chat(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	var req model.ChatRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    40001,
			Message: "Invalid request body",
			Detail:  err.Error(),
		})
		return
	}

	image, imageMIME, err := readImageFile(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    40002,
			Message: "参考图读取失败",
			Detail:  err.Error(),
		})
		return
	}

	resp, err := h.studio.Chat(c.Request.Context(), uid, c.Param("id"), &req, image, imageMIME)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
