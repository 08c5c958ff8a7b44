package component

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"atelier/internal/model"
	"atelier/internal/pkg/ctxutil"
	httputil "atelier/internal/pkg/http"
	"atelier/internal/repository"
	"atelier/internal/sandbox"
	"atelier/internal/service"
	componentsync "atelier/internal/sync"
)

// ErrorResponse 错误响应类型别名（使用共用的 http.ErrorResponse）
type ErrorResponse = httputil.ErrorResponse

// 参考图大小上限
const maxImageSize = 8 << 20

// ComponentInfo 组件信息 DTO
type ComponentInfo struct {
	ID          string            `json:"id"`           // 组件ID
	Name        string            `json:"name"`         // 组件名称
	Framework   string            `json:"framework"`    // 目标框架：react, html
	CurrentCode string            `json:"current_code"` // 当前代码
	StyleTokens map[string]string `json:"style_tokens"` // 样式令牌
	Version     int               `json:"version"`      // 版本号
	CreatedAt   string            `json:"created_at"`   // 创建时间
	UpdatedAt   string            `json:"updated_at"`   // 更新时间
}

// toComponentInfo 将 Component 实体转换为 ComponentInfo DTO
func toComponentInfo(comp *model.Component) ComponentInfo {
	return ComponentInfo{
		ID:          comp.ID,
		Name:        comp.Name,
		Framework:   string(comp.Framework),
		CurrentCode: comp.CurrentCode,
		StyleTokens: comp.StyleTokens,
		Version:     comp.Version,
		CreatedAt:   comp.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   comp.UpdatedAt.Format(time.RFC3339),
	}
}

// userID 从请求 context 解析认证后的用户ID
func userID(c *gin.Context) (string, bool) {
	id, ok := ctxutil.GetUserID(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Code:    40101,
			Message: "未授权",
		})
	}
	return id, ok
}

// respondError 把服务层的类型化错误映射为统一错误响应
// 不存在与不属于请求方返回同样的 404，避免泄露组件存在性
func respondError(c *gin.Context, err error) {
	var genErr *service.GenerationError
	var renderErr *sandbox.RenderError

	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Code:    40401,
			Message: "组件不存在",
		})
	case errors.Is(err, repository.ErrConflict):
		c.JSON(http.StatusConflict, ErrorResponse{
			Code:    40901,
			Message: "组件已被其他请求修改，请刷新后重试",
		})
	case errors.Is(err, componentsync.ErrBusy):
		c.JSON(http.StatusConflict, ErrorResponse{
			Code:    40902,
			Message: "组件正在生成中，请等待当前生成完成",
		})
	case errors.Is(err, service.ErrInvalidFramework):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    40003,
			Message: "不支持的框架",
			Detail:  err.Error(),
		})
	case errors.As(err, &genErr):
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    50002,
			Message: "生成失败",
			Detail:  genErr.Reason,
		})
	case errors.As(err, &renderErr):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Code:    42201,
			Message: "预览装配失败",
			Detail:  renderErr.Message,
		})
	default:
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("请求处理失败")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    50001,
			Message: "Internal Server Error",
		})
	}
}

// readImageFile 读取 multipart 表单里的可选参考图
func readImageFile(c *gin.Context) ([]byte, string, error) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		// 没有图片不是错误
		return nil, "", nil
	}
	if fileHeader.Size > maxImageSize {
		return nil, "", errors.New("参考图超过大小上限")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, "", err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImageSize))
	if err != nil {
		return nil, "", err
	}

	mime := fileHeader.Header.Get("Content-Type")
	if mime == "" {
		mime = "image/png"
	}
	return data, mime, nil
}
