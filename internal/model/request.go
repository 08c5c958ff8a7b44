package model

// GenerateComponentRequest 新建组件并生成（multipart 表单，image 文件可选）
type GenerateComponentRequest struct {
	Framework string `form:"framework" binding:"required"` // react / html
	Prompt    string `form:"prompt" binding:"required"`
}

// ChatRequest 对已有组件的会话式更新（multipart 表单，image 文件可选）
type ChatRequest struct {
	Message string `form:"message" binding:"required"`
}

// CreateComponentRequest 新建空组件
type CreateComponentRequest struct {
	Name      string `json:"name,omitempty"`
	Framework string `json:"framework,omitempty"` // 默认 react
}

// UpdateComponentRequest 更新组件（代码/样式令牌/名称）
// ExpectedVersion 用于乐观并发检查；重复同一请求是幂等的
type UpdateComponentRequest struct {
	CurrentCode     *string           `json:"current_code,omitempty"`
	StyleTokens     map[string]string `json:"style_tokens,omitempty"`
	Name            *string           `json:"name,omitempty"`
	ExpectedVersion int               `json:"expected_version"`
}

// BufferRequest 编辑器缓冲区内容（进入同步协调器，防抖后提交）
type BufferRequest struct {
	Content string `json:"content"`
}
