package ai

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"atelier/internal/model"
)

func historyOf(n int) []*model.ConversationMessage {
	msgs := make([]*model.ConversationMessage, 0, n)
	for i := 0; i < n; i++ {
		role := model.RoleUser
		if i%2 == 1 {
			role = model.RoleAssistant
		}
		msgs = append(msgs, &model.ConversationMessage{
			Role:    role,
			Content: string(rune('a' + i)),
			Seq:     i + 1,
		})
	}
	return msgs
}

func TestBuildGenerationRequest(t *testing.T) {
	Convey("BuildGenerationRequest 组装生成上下文", t, func() {
		comp := &model.Component{
			ID:          "c1",
			Framework:   model.FrameworkReact,
			CurrentCode: "function Old() {}",
			StyleTokens: map[string]string{"primary-color": "#3b82f6"},
		}

		Convey("历史超出窗口时只保留最近的轮次", func() {
			req := BuildGenerationRequest(comp, historyOf(25), "msg", nil, "", 10)
			So(len(req.History), ShouldEqual, 10)
			// 保留的是最新的，顺序不变
			So(req.History[9].Content, ShouldEqual, string(rune('a'+24)))
			So(req.History[0].Content, ShouldEqual, string(rune('a'+15)))
		})

		Convey("历史不足窗口时全部保留", func() {
			req := BuildGenerationRequest(comp, historyOf(3), "msg", nil, "", 10)
			So(len(req.History), ShouldEqual, 3)
		})

		Convey("不会修改输入的组件状态", func() {
			req := BuildGenerationRequest(comp, nil, "msg", nil, "", 10)
			req.StyleTokens["primary-color"] = "changed"
			So(comp.StyleTokens["primary-color"], ShouldEqual, "#3b82f6")
		})

		Convey("系统指令包含框架与样式令牌", func() {
			req := BuildGenerationRequest(comp, nil, "msg", nil, "", 10)
			sys := req.systemPrompt()
			So(sys, ShouldContainSubstring, "react")
			So(sys, ShouldContainSubstring, "--primary-color: #3b82f6")
			So(sys, ShouldContainSubstring, "function Old() {}")
			So(sys, ShouldContainSubstring, "Preserve the existing structure")
		})

		Convey("首轮（无现有代码）要求从零生成", func() {
			empty := &model.Component{ID: "c2", Framework: model.FrameworkHTML}
			req := BuildGenerationRequest(empty, nil, "a landing page", nil, "", 10)
			sys := req.systemPrompt()
			So(sys, ShouldContainSubstring, "brand-new component from scratch")
			So(sys, ShouldNotContainSubstring, "Current code:")
		})

		Convey("携带图片时指令要求对齐参考图", func() {
			req := BuildGenerationRequest(comp, nil, "msg", []byte{0x89, 0x50}, "image/png", 10)
			So(req.systemPrompt(), ShouldContainSubstring, "reference image")
		})
	})
}
