package component

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"atelier/internal/model"
	httputil "atelier/internal/pkg/http"
)

// Create 新建空组件
// @Summary      新建空组件
// @Description  新建一个带起始代码的空组件，不触发生成。
// @Tags         组件管理
// @Accept       json
// @Produce      json
// @Param        request  body      model.CreateComponentRequest  true  "新建请求"
// @Success      200      {object}  httputil.SuccessResponse  "新建的组件"
// @Failure      400      {object}  ErrorResponse  "请求参数错误"
// @Router       /api/v1/components [post]
func (h *Handler) Create(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	var req model.CreateComponentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    40001,
			Message: "Invalid request body",
			Detail:  err.Error(),
		})
		return
	}

	comp, err := h.studio.CreateEmpty(c.Request.Context(), uid, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httputil.NewSuccessResponse("组件创建成功", toComponentInfo(comp)))
}

// List 查询组件列表
// @Summary      组件列表
// @Description  查询当前用户的组件列表，按最近活动排序。
// @Tags         组件管理
// @Produce      json
// @Success      200  {object}  httputil.SuccessResponse  "组件列表"
// @Router       /api/v1/components [get]
func (h *Handler) List(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	list, err := h.studio.List(c.Request.Context(), uid)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httputil.NewSuccessResponse("ok", list))
}

// Get 查询组件详情
// @Summary      组件详情
// @Description  查询组件及其完整对话记录。
// @Tags         组件管理
// @Produce      json
// @Param        id   path      string  true  "组件ID"
// @Success      200  {object}  httputil.SuccessResponse  "组件详情"
// @Failure      404  {object}  ErrorResponse  "组件不存在"
// @Router       /api/v1/components/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	detail, err := h.studio.Get(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httputil.NewSuccessResponse("ok", detail))
}

// Update 更新组件
// @Summary      更新组件
// @Description  直接更新组件代码、样式令牌或名称，带乐观版本检查，不产生新版本。
// @Tags         组件管理
// @Accept       json
// @Produce      json
// @Param        id       path      string  true  "组件ID"
// @Param        request  body      model.UpdateComponentRequest  true  "更新请求"
// @Success      200      {object}  httputil.SuccessResponse  "更新后的组件"
// @Failure      404      {object}  ErrorResponse  "组件不存在"
// @Failure      409      {object}  ErrorResponse  "版本冲突"
// @Router       /api/v1/components/{id} [put]
func (h *Handler) Update(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	var req model.UpdateComponentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    40001,
			Message: "Invalid request body",
			Detail:  err.Error(),
		})
		return
	}

	comp, err := h.studio.Update(c.Request.Context(), uid, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httputil.NewSuccessResponse("组件更新成功", toComponentInfo(comp)))
}

// Delete 删除组件
// @Summary      删除组件
// @Description  删除组件及其对话和版本历史。
// @Tags         组件管理
// @Produce      json
// @Param        id   path      string  true  "组件ID"
// @Success      200  {object}  httputil.SuccessResponse  "删除成功"
// @Failure      404  {object}  ErrorResponse  "组件不存在"
// @Router       /api/v1/components/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	if err := h.studio.Delete(c.Request.Context(), uid, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httputil.NewSuccessResponse("组件删除成功", nil))
}
