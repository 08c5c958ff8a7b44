package ai

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestExtractArtifact(t *testing.T) {
	Convey("ExtractArtifact 从模型响应中提取代码产物", t, func() {
		Convey("纯文本响应原样返回（去除首尾空白）", func() {
			So(ExtractArtifact("plain text"), ShouldEqual, "plain text")
			So(ExtractArtifact("  plain text \n"), ShouldEqual, "plain text")
		})

		Convey("围栏代码块只取块内容", func() {
			So(ExtractArtifact("prefix ```js\ncode\n``` suffix"), ShouldEqual, "code")
			So(ExtractArtifact("```\nraw\n```"), ShouldEqual, "raw")
			So(ExtractArtifact("```jsx\nfunction App() {}\n```"), ShouldEqual, "function App() {}")
		})

		Convey("多个代码块时取第一个", func() {
			resp := "```html\n<div/>\n```\nand also\n```js\nalert(1)\n```"
			So(ExtractArtifact(resp), ShouldEqual, "<div/>")
		})

		Convey("保留块内部的空行和缩进", func() {
			resp := "```js\nfunction A() {\n\n  return 1;\n}\n```"
			So(ExtractArtifact(resp), ShouldEqual, "function A() {\n\n  return 1;\n}")
		})

		Convey("未闭合的围栏按纯文本处理", func() {
			So(ExtractArtifact("```js\ncode without closing"), ShouldEqual, "```js\ncode without closing")
		})

		Convey("空响应返回空字符串", func() {
			So(ExtractArtifact(""), ShouldEqual, "")
			So(ExtractArtifact("   \n  "), ShouldEqual, "")
		})
	})
}
