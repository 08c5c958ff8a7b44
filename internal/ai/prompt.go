package ai

import (
	"fmt"
	"sort"
	"strings"

	"atelier/internal/model"
)

// Turn 生成上下文里的一轮对话
type Turn struct {
	Role    model.Role
	Content string
}

// GenerationRequest 一次生成调用的完整上下文（瞬态，不持久化）
type GenerationRequest struct {
	Framework   model.Framework
	CurrentCode string
	StyleTokens map[string]string

	// History 最近的对话轮次，旧的在前，已按窗口截断
	History []Turn

	UserMessage string

	// Image 可选的参考图片
	Image     []byte
	ImageMIME string
}

// GenerationResult 生成结果：成功携带代码，失败携带原因
// 生成客户端从不向外抛错，所有失败都收敛到 FailureReason
type GenerationResult struct {
	Code          string
	FailureReason string
}

// Failed 判断是否失败
func (r *GenerationResult) Failed() bool {
	return r.FailureReason != ""
}

// BuildGenerationRequest 组装生成请求（Context Builder）
// 纯函数：不读写任何存储状态。history 只保留最近 window 轮，
// 无界的完整历史会让请求体无限增长，截断是显式的策略。
func BuildGenerationRequest(comp *model.Component, history []*model.ConversationMessage, userMessage string, image []byte, imageMIME string, window int) *GenerationRequest {
	if window <= 0 {
		window = 10
	}
	if len(history) > window {
		history = history[len(history)-window:]
	}

	turns := make([]Turn, 0, len(history))
	for _, msg := range history {
		turns = append(turns, Turn{Role: msg.Role, Content: msg.Content})
	}

	tokens := make(map[string]string, len(comp.StyleTokens))
	for k, v := range comp.StyleTokens {
		tokens[k] = v
	}

	return &GenerationRequest{
		Framework:   comp.Framework,
		CurrentCode: comp.CurrentCode,
		StyleTokens: tokens,
		History:     turns,
		UserMessage: userMessage,
		Image:       image,
		ImageMIME:   imageMIME,
	}
}

// systemPrompt 生成系统指令
// 内容：目标框架、代码规范、样式令牌的间接引用要求
func (r *GenerationRequest) systemPrompt() string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are an expert frontend developer. Generate clean, production-ready code for %s.\n\n", r.Framework)

	b.WriteString("RULES:\n")
	b.WriteString("1. Return ONLY complete working code (no explanations)\n")
	switch r.Framework {
	case model.FrameworkReact:
		b.WriteString("2. Complete JSX component with Tailwind CSS\n")
	case model.FrameworkHTML:
		b.WriteString("2. Single HTML file with inline CSS/JS\n")
	}
	b.WriteString("3. Use CSS custom properties for all style values (--primary-color, --padding, etc.), never hard-code them\n")

	if r.CurrentCode == "" {
		// 首轮：还没有代码，要求从零生成而不是编辑
		b.WriteString("4. There is no existing code: write a brand-new component from scratch\n")
	} else {
		b.WriteString("4. Preserve the existing structure when updating\n")
	}
	if len(r.Image) > 0 {
		b.WriteString("5. Match the attached reference image as closely as possible\n")
	}

	if len(r.StyleTokens) > 0 {
		keys := make([]string, 0, len(r.StyleTokens))
		for k := range r.StyleTokens {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString("\nStyle tokens to reference via var(--token):\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "  --%s: %s\n", k, r.StyleTokens[k])
		}
	}

	if r.CurrentCode != "" {
		fmt.Fprintf(&b, "\nCurrent code:\n```\n%s\n```\n", r.CurrentCode)
	}

	b.WriteString("\nReturn ONLY the complete code block.")
	return b.String()
}
