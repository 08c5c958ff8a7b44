package namegen

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestGenerator_Derive(t *testing.T) {
	Convey("Derive 从首条提示词推导组件名", t, func() {
		g := New()

		Convey("空提示词返回默认名称", func() {
			So(g.Derive(""), ShouldEqual, DefaultName)
			So(g.Derive("   "), ShouldEqual, DefaultName)
		})

		Convey("过滤停用词后取关键词", func() {
			name := g.Derive("please create a pricing card with a blue button")
			So(name, ShouldNotEqual, DefaultName)
			So(name, ShouldContainSubstring, "Pricing")
			So(name, ShouldContainSubstring, "Card")
			So(name, ShouldNotContainSubstring, "Please")
		})

		Convey("只含停用词时返回默认名称", func() {
			So(g.Derive("please make a component for me"), ShouldEqual, DefaultName)
		})

		Convey("名称长度有上限", func() {
			name := g.Derive("supercalifragilisticexpialidocious extraordinarily sophisticated multifunctional dashboard")
			So(len([]rune(name)), ShouldBeLessThanOrEqualTo, maxNameLen)
		})

		Convey("中文提示词同样可用", func() {
			name := g.Derive("帮我生成一个蓝色按钮组件")
			So(name, ShouldNotBeEmpty)
			So(name, ShouldNotContainSubstring, "帮我")
		})
	})
}
