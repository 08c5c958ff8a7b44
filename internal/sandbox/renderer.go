// Package sandbox 把组件源码装配成可在隔离 iframe 里执行的完整 HTML 文档。
// 装配是纯函数：不触网、不执行代码，运行时脚本只通过 URL 引用。
package sandbox

import (
	"bytes"
	"sort"
	"strings"
	"text/template"

	"atelier/internal/config"
	"atelier/internal/model"
)

// RenderError 文档装配失败
// 这类错误属于渲染管线，和生成、持久化错误互不混淆
type RenderError struct {
	Message string
}

func (e *RenderError) Error() string {
	return e.Message
}

// 默认运行时地址，config 里未配置时使用
const (
	defaultReactURL    = "https://unpkg.com/react@18/umd/react.development.js"
	defaultReactDOMURL = "https://unpkg.com/react-dom@18/umd/react-dom.development.js"
	defaultBabelURL    = "https://unpkg.com/@babel/standalone/babel.min.js"
	defaultTailwindURL = "https://cdn.tailwindcss.com"
)

// Renderer 沙箱文档装配器
type Renderer struct {
	reactURL    string
	reactDOMURL string
	babelURL    string
	tailwindURL string
}

// NewRenderer 创建装配器
func NewRenderer(cfg *config.SandboxConfig) *Renderer {
	r := &Renderer{
		reactURL:    defaultReactURL,
		reactDOMURL: defaultReactDOMURL,
		babelURL:    defaultBabelURL,
		tailwindURL: defaultTailwindURL,
	}
	if cfg != nil {
		if cfg.ReactRuntimeURL != "" {
			r.reactURL = cfg.ReactRuntimeURL
		}
		if cfg.ReactDOMRuntimeURL != "" {
			r.reactDOMURL = cfg.ReactDOMRuntimeURL
		}
		if cfg.BabelRuntimeURL != "" {
			r.babelURL = cfg.BabelRuntimeURL
		}
		if cfg.TailwindRuntimeURL != "" {
			r.tailwindURL = cfg.TailwindRuntimeURL
		}
	}
	return r
}

type styleToken struct {
	Name  string
	Value string
}

type documentData struct {
	ReactURL    string
	ReactDOMURL string
	BabelURL    string
	TailwindURL string
	Tokens      []styleToken
	// 文档故意嵌入将要执行的用户代码，模板用 text/template，
	// 只做防提前闭合的最小转义
	Code  string
	Entry string
	Body  string
}

// Render 把组件源码装配成完整 HTML 文档
// 同样的输入总是产生同样的文档；入口缺失返回 *RenderError
func (r *Renderer) Render(framework model.Framework, code string, tokens map[string]string) (string, error) {
	entry, err := DiscoverEntry(framework, code)
	if err != nil {
		return "", err
	}

	data := documentData{
		ReactURL:    r.reactURL,
		ReactDOMURL: r.reactDOMURL,
		BabelURL:    r.babelURL,
		TailwindURL: r.tailwindURL,
		Tokens:      sortedTokens(tokens),
		Entry:       entry,
	}

	var tmpl *template.Template
	switch framework {
	case model.FrameworkReact:
		data.Code = escapeForScript(stripModuleSyntax(code))
		tmpl = reactDocumentTmpl
	case model.FrameworkHTML:
		if isFullHTMLDocument(code) {
			// 完整文档原样返回，只保证样式变量可用
			return injectTokensIntoDocument(code, data.Tokens), nil
		}
		data.Body = code
		tmpl = htmlDocumentTmpl
	default:
		return "", &RenderError{Message: "不支持的渲染框架: " + string(framework)}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", &RenderError{Message: "文档装配失败: " + err.Error()}
	}
	return buf.String(), nil
}

// RenderFailure 装配一个错误面板文档
// 预览接口用它把装配失败以可见的形式送进 iframe，而不是裸 JSON
func (r *Renderer) RenderFailure(message string) string {
	var buf bytes.Buffer
	if err := failureDocumentTmpl.Execute(&buf, struct{ Message string }{Message: message}); err != nil {
		return "<!DOCTYPE html><html><body><pre>" + message + "</pre></body></html>"
	}
	return buf.String()
}

// sortedTokens 样式变量按名字排序，保证装配结果稳定
func sortedTokens(tokens map[string]string) []styleToken {
	out := make([]styleToken, 0, len(tokens))
	for name, value := range tokens {
		if !strings.HasPrefix(name, "--") {
			name = "--" + name
		}
		out = append(out, styleToken{Name: name, Value: value})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// escapeForScript 防止源码里的 </script> 提前终结脚本块
func escapeForScript(code string) string {
	return strings.ReplaceAll(code, "</script>", `<\/script>`)
}

func isFullHTMLDocument(code string) bool {
	head := strings.ToLower(strings.TrimSpace(code))
	return strings.HasPrefix(head, "<!doctype") || strings.HasPrefix(head, "<html")
}

// injectTokensIntoDocument 在完整 HTML 文档的 head 里补一段 :root 变量
func injectTokensIntoDocument(code string, tokens []styleToken) string {
	if len(tokens) == 0 {
		return code
	}
	var sb strings.Builder
	sb.WriteString("<style>:root{")
	for _, t := range tokens {
		sb.WriteString(t.Name)
		sb.WriteString(":")
		sb.WriteString(t.Value)
		sb.WriteString(";")
	}
	sb.WriteString("}</style>")

	lower := strings.ToLower(code)
	if idx := strings.Index(lower, "</head>"); idx >= 0 {
		return code[:idx] + sb.String() + code[idx:]
	}
	return sb.String() + code
}
