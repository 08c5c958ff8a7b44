package sandbox

import (
	"regexp"
	"strings"

	"atelier/internal/model"
)

// 入口发现按声明顺序尝试，第一个命中的策略生效
var reactEntryPatterns = []*regexp.Regexp{
	// export default function Widget() / export default class Widget
	regexp.MustCompile(`export\s+default\s+(?:function|class)\s+([A-Za-z_$][\w$]*)`),
	// export default Widget;
	regexp.MustCompile(`export\s+default\s+([A-Za-z_$][\w$]*)\s*;?`),
	// 顶层大写函数声明
	regexp.MustCompile(`(?m)^\s*(?:export\s+)?function\s+([A-Z][\w$]*)`),
	// 顶层大写箭头函数或函数表达式
	regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:const|let|var)\s+([A-Z][\w$]*)\s*=\s*(?:async\s+)?(?:\(|function\b|[A-Za-z_$][\w$]*\s*=>)`),
}

// DiscoverEntry 从组件源码中找出可挂载的入口符号
// react 依次尝试默认导出名和首个大写顶层可调用声明；
// html 整体注入，没有入口概念
func DiscoverEntry(framework model.Framework, code string) (string, error) {
	switch framework {
	case model.FrameworkHTML:
		return "", nil
	case model.FrameworkReact:
		for _, re := range reactEntryPatterns {
			if m := re.FindStringSubmatch(code); m != nil {
				return m[1], nil
			}
		}
		return "", &RenderError{
			Message: "无法在组件代码中找到入口：需要一个默认导出或大写开头的顶层组件声明",
		}
	default:
		return "", &RenderError{Message: "不支持的渲染框架: " + string(framework)}
	}
}

// 模块语法在 iframe 的 babel-standalone 里不可用，挂载前剥掉
var (
	exportDefaultDeclRe = regexp.MustCompile(`export\s+default\s+((?:function|class)\b)`)
	exportDefaultRefRe  = regexp.MustCompile(`export\s+default\s+[A-Za-z_$][\w$]*\s*;?`)
	exportNamedRe       = regexp.MustCompile(`(?m)^\s*export\s+\{[^}]*\}\s*;?\s*$`)
	exportKeywordRe     = regexp.MustCompile(`(?m)^(\s*)export\s+(const|let|var|function|class)\b`)
	importLineRe        = regexp.MustCompile(`(?m)^\s*import\s+[^;\n]+;?\s*$`)
)

// stripModuleSyntax 把 ESM 形式的组件源码转为可直接执行的脚本体
func stripModuleSyntax(code string) string {
	code = importLineRe.ReplaceAllString(code, "")
	code = exportDefaultDeclRe.ReplaceAllString(code, "$1")
	code = exportDefaultRefRe.ReplaceAllString(code, "")
	code = exportNamedRe.ReplaceAllString(code, "")
	code = exportKeywordRe.ReplaceAllString(code, "$1$2")
	return strings.TrimSpace(code)
}
