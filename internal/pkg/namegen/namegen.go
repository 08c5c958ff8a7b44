package namegen

import (
	"strings"
	"unicode"

	"github.com/go-ego/gse"
)

// DefaultName 无法从提示词提取关键词时的回退名称
const DefaultName = "New Component"

const (
	maxKeywords = 4  // 名称最多取的关键词数
	maxNameLen  = 40 // 名称最大字符数（rune）
)

// 常见的无信息量词，不进入名称
var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "of": true, "for": true,
	"with": true, "and": true, "or": true, "to": true, "in": true,
	"on": true, "that": true, "this": true, "my": true, "me": true,
	"please": true, "make": true, "create": true, "build": true,
	"generate": true, "component": true, "want": true, "need": true,
	"like": true, "using": true, "add": true, "新建": true, "一个": true,
	"请": true, "帮我": true, "生成": true, "创建": true, "组件": true,
	"的": true, "了": true, "和": true, "或": true, "我": true,
}

// Generator 从首条提示词推导组件显示名
type Generator struct {
	seg gse.Segmenter
	ok  bool
}

// New 创建名称生成器
// 分词器加载失败时降级为空白切分
func New() *Generator {
	seg, err := gse.New()
	if err != nil {
		return &Generator{ok: false}
	}
	return &Generator{seg: seg, ok: true}
}

// Derive 从提示词推导显示名
// 规则：分词 -> 去停用词和标点 -> 取前几个关键词拼接 -> 截断
func (g *Generator) Derive(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return DefaultName
	}

	var words []string
	if g.ok {
		words = g.seg.Cut(prompt, true)
	} else {
		words = strings.Fields(prompt)
	}

	var keywords []string
	for _, w := range words {
		w = strings.TrimFunc(w, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
		})
		if w == "" {
			continue
		}
		if stopwords[strings.ToLower(w)] {
			continue
		}
		keywords = append(keywords, titleCaseLatin(w))
		if len(keywords) == maxKeywords {
			break
		}
	}

	if len(keywords) == 0 {
		return DefaultName
	}

	name := strings.Join(keywords, " ")
	runes := []rune(name)
	if len(runes) > maxNameLen {
		name = string(runes[:maxNameLen])
	}
	return name
}

// titleCaseLatin 拉丁词首字母大写，其他文字原样返回
func titleCaseLatin(w string) string {
	r := []rune(w)
	if r[0] >= 'a' && r[0] <= 'z' {
		r[0] = unicode.ToUpper(r[0])
	}
	return string(r)
}
