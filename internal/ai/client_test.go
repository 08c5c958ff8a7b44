package ai

import (
	"context"
	"errors"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	. "github.com/smartystreets/goconvey/convey"

	"atelier/internal/config"
	"atelier/internal/model"
)

// fakeModel 可编程的补全能力替身
type fakeModel struct {
	response string
	err      error
	calls    int
	lastIn   []*schema.Message
}

func (f *fakeModel) Generate(ctx context.Context, in []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	f.calls++
	f.lastIn = in
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.response, nil), nil
}

func TestClient_Generate(t *testing.T) {
	Convey("Client.Generate 每个请求恰好调用一次补全能力", t, func() {
		cfg := &config.AIConfig{Model: "test"}
		req := &GenerationRequest{
			Framework:   model.FrameworkReact,
			UserMessage: "make a button",
			History: []Turn{
				{Role: model.RoleUser, Content: "hi"},
				{Role: model.RoleAssistant, Content: "```js\nold\n```"},
			},
		}

		Convey("成功时返回提取后的代码", func() {
			fm := &fakeModel{response: "sure:\n```jsx\nfunction Button() {}\n```"}
			client := NewClientWithModel(cfg, fm)

			result := client.Generate(context.Background(), req)
			So(result.Failed(), ShouldBeFalse)
			So(result.Code, ShouldEqual, "function Button() {}")
			So(fm.calls, ShouldEqual, 1)
		})

		Convey("消息序列为 system + 历史 + 用户消息", func() {
			fm := &fakeModel{response: "```js\nx\n```"}
			client := NewClientWithModel(cfg, fm)
			client.Generate(context.Background(), req)

			So(len(fm.lastIn), ShouldEqual, 4)
			So(fm.lastIn[0].Role, ShouldEqual, schema.System)
			So(fm.lastIn[1].Role, ShouldEqual, schema.User)
			So(fm.lastIn[2].Role, ShouldEqual, schema.Assistant)
			So(fm.lastIn[3].Role, ShouldEqual, schema.User)
			So(fm.lastIn[3].Content, ShouldEqual, "make a button")
		})

		Convey("模型报错时收敛为失败结果而非异常", func() {
			fm := &fakeModel{err: errors.New("connection refused")}
			client := NewClientWithModel(cfg, fm)

			result := client.Generate(context.Background(), req)
			So(result.Failed(), ShouldBeTrue)
			So(result.FailureReason, ShouldContainSubstring, "connection refused")
			So(result.Code, ShouldBeEmpty)
		})

		Convey("空响应视为失败", func() {
			fm := &fakeModel{response: "   "}
			client := NewClientWithModel(cfg, fm)

			result := client.Generate(context.Background(), req)
			So(result.Failed(), ShouldBeTrue)
			So(result.FailureReason, ShouldNotBeEmpty)
		})

		Convey("携带图片时最后一条消息是多段内容", func() {
			fm := &fakeModel{response: "```js\nx\n```"}
			client := NewClientWithModel(cfg, fm)

			imgReq := *req
			imgReq.Image = []byte{0x89, 0x50, 0x4e, 0x47}
			imgReq.ImageMIME = "image/png"
			client.Generate(context.Background(), &imgReq)

			last := fm.lastIn[len(fm.lastIn)-1]
			So(len(last.MultiContent), ShouldEqual, 2)
			So(last.MultiContent[0].Type, ShouldEqual, schema.ChatMessagePartTypeImageURL)
			So(last.MultiContent[0].ImageURL.URL, ShouldStartWith, "data:image/png;base64,")
			So(last.MultiContent[1].Text, ShouldEqual, "make a button")
		})
	})
}
