package ai

import (
	"regexp"
	"strings"
)

// 围栏代码块：```lang\n ... ```
var fencedBlockRe = regexp.MustCompile("(?s)```[\\w+.-]*[ \\t]*\\r?\\n?(.*?)```")

// ExtractArtifact 从模型自由文本响应中提取唯一的代码产物
// 策略：响应里有围栏代码块就取第一个块的内容，否则整段去除首尾空白后作为产物。
// 确定性的纯函数，可以脱离真实模型测试。
func ExtractArtifact(response string) string {
	if m := fencedBlockRe.FindStringSubmatch(response); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(response)
}
