package service

import (
	"context"
	"errors"
	stdsync "sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"atelier/internal/ai"
	"atelier/internal/config"
	"atelier/internal/model"
	"atelier/internal/pkg/id"
	"atelier/internal/repository"
	"atelier/internal/sandbox"
	componentsync "atelier/internal/sync"
)

// memRepo 内存版本库，行为对齐 MongoDB 实现
type memRepo struct {
	mu       stdsync.Mutex
	comps    map[string]*model.Component
	msgs     map[string][]*model.ConversationMessage
	versions map[string][]*model.CodeVersion
}

func newMemRepo() *memRepo {
	return &memRepo{
		comps:    make(map[string]*model.Component),
		msgs:     make(map[string][]*model.ConversationMessage),
		versions: make(map[string][]*model.CodeVersion),
	}
}

func (r *memRepo) owned(userID, componentID string) (*model.Component, error) {
	c, ok := r.comps[componentID]
	if !ok || c.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return c, nil
}

func (r *memRepo) Create(_ context.Context, comp *model.Component) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	comp.CreatedAt = now
	comp.UpdatedAt = now
	cp := *comp
	r.comps[comp.ID] = &cp
	return nil
}

func (r *memRepo) FindByID(_ context.Context, userID, componentID string) (*model.Component, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, err := r.owned(userID, componentID)
	if err != nil {
		return nil, err
	}
	cp := *c
	return &cp, nil
}

func (r *memRepo) FindWithConversation(ctx context.Context, userID, componentID string) (*model.ComponentDetail, error) {
	comp, err := r.FindByID(ctx, userID, componentID)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs := append([]*model.ConversationMessage(nil), r.msgs[componentID]...)
	return &model.ComponentDetail{Component: comp, Conversation: msgs}, nil
}

func (r *memRepo) List(_ context.Context, userID string) ([]*model.ComponentSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.ComponentSummary
	for _, c := range r.comps {
		if c.UserID != userID {
			continue
		}
		out = append(out, &model.ComponentSummary{
			ID:           c.ID,
			Name:         c.Name,
			Framework:    c.Framework,
			Version:      c.Version,
			MessageCount: c.MessageSeq,
			LastActivity: c.UpdatedAt,
			CreatedAt:    c.CreatedAt,
		})
	}
	return out, nil
}

func (r *memRepo) RecentMessages(_ context.Context, componentID string, limit int) ([]*model.ConversationMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs := r.msgs[componentID]
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return append([]*model.ConversationMessage(nil), msgs...), nil
}

func (r *memRepo) AppendTurn(_ context.Context, userID, componentID string, expectedVersion int, userMsg, code, summary string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, err := r.owned(userID, componentID)
	if err != nil {
		return 0, err
	}
	if c.Version != expectedVersion {
		return 0, repository.ErrConflict
	}
	now := time.Now()
	r.msgs[componentID] = append(r.msgs[componentID],
		&model.ConversationMessage{ID: id.NewCompact(), ComponentID: componentID, UserID: userID, Role: model.RoleUser, Content: userMsg, Seq: c.MessageSeq + 1, Timestamp: now},
		&model.ConversationMessage{ID: id.NewCompact(), ComponentID: componentID, UserID: userID, Role: model.RoleAssistant, Content: code, Code: code, Seq: c.MessageSeq + 2, Timestamp: now},
	)
	newVersion := expectedVersion + 1
	r.versions[componentID] = append(r.versions[componentID],
		&model.CodeVersion{ID: id.NewCompact(), ComponentID: componentID, Number: newVersion, Code: code, Summary: summary, CreatedAt: now})
	c.CurrentCode = code
	c.Version = newVersion
	c.MessageSeq += 2
	c.UpdatedAt = now
	return newVersion, nil
}

func (r *memRepo) AppendFailedTurn(_ context.Context, userID, componentID, userMsg, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, err := r.owned(userID, componentID)
	if err != nil {
		return err
	}
	now := time.Now()
	r.msgs[componentID] = append(r.msgs[componentID],
		&model.ConversationMessage{ID: id.NewCompact(), ComponentID: componentID, UserID: userID, Role: model.RoleUser, Content: userMsg, Seq: c.MessageSeq + 1, Timestamp: now},
		&model.ConversationMessage{ID: id.NewCompact(), ComponentID: componentID, UserID: userID, Role: model.RoleAssistant, Content: reason, Error: true, Seq: c.MessageSeq + 2, Timestamp: now},
	)
	c.MessageSeq += 2
	c.UpdatedAt = now
	return nil
}

func (r *memRepo) UpdateCode(_ context.Context, userID, componentID string, expectedVersion int, fields repository.UpdateFields) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, err := r.owned(userID, componentID)
	if err != nil {
		return err
	}
	if c.Version != expectedVersion {
		return repository.ErrConflict
	}
	if fields.Code != nil {
		c.CurrentCode = *fields.Code
	}
	if fields.StyleTokens != nil {
		c.StyleTokens = fields.StyleTokens
	}
	if fields.Name != nil {
		c.Name = *fields.Name
	}
	c.UpdatedAt = time.Now()
	return nil
}

func (r *memRepo) CommitBuffer(_ context.Context, userID, componentID, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, err := r.owned(userID, componentID)
	if err != nil {
		return err
	}
	c.CurrentCode = content
	c.UpdatedAt = time.Now()
	return nil
}

func (r *memRepo) SetImageKey(_ context.Context, userID, componentID, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, err := r.owned(userID, componentID)
	if err != nil {
		return err
	}
	c.ImageKey = key
	return nil
}

func (r *memRepo) ListVersions(_ context.Context, userID, componentID string) ([]*model.CodeVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.owned(userID, componentID); err != nil {
		return nil, err
	}
	return append([]*model.CodeVersion(nil), r.versions[componentID]...), nil
}

func (r *memRepo) Delete(_ context.Context, userID, componentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.owned(userID, componentID); err != nil {
		return err
	}
	delete(r.comps, componentID)
	delete(r.msgs, componentID)
	delete(r.versions, componentID)
	return nil
}

// fakeCompleter 可配置的生成桩，block 非空时阻塞到被放行
type fakeCompleter struct {
	result *ai.GenerationResult
	block  chan struct{}
}

func (f *fakeCompleter) Generate(_ context.Context, _ *ai.GenerationRequest) *ai.GenerationResult {
	if f.block != nil {
		<-f.block
	}
	return f.result
}

func newTestService(repo repository.ComponentRepository, completer Completer) (*StudioService, *componentsync.Coordinator) {
	syncCfg := &config.SyncConfig{
		DebounceInterval: 20 * time.Millisecond,
		HistoryWindow:    10,
		CommitTimeout:    time.Second,
	}
	coord := componentsync.NewCoordinator(syncCfg, func(ctx context.Context, userID string, ref componentsync.ComponentRef, content string) error {
		return repo.CommitBuffer(ctx, userID, ref.ID, content)
	})
	svc := NewStudioService(repo, completer, coord, nil, nil, sandbox.NewRenderer(nil), syncCfg)
	return svc, coord
}

const genCode = "export default function Widget() { return <div>generated</div>; }"

func TestCreateEmpty(t *testing.T) {
	Convey("新建空组件", t, func() {
		repo := newMemRepo()
		svc, coord := newTestService(repo, &fakeCompleter{})
		defer coord.Close()
		ctx := context.Background()

		Convey("默认 react 框架和起始代码", func() {
			comp, err := svc.CreateEmpty(ctx, "u1", &model.CreateComponentRequest{})
			So(err, ShouldBeNil)
			So(comp.Framework, ShouldEqual, model.FrameworkReact)
			So(comp.CurrentCode, ShouldEqual, defaultReactCode)
			So(comp.Name, ShouldEqual, "New Component")
			So(comp.Version, ShouldEqual, 0)
		})

		Convey("html 框架用 html 起始代码", func() {
			comp, err := svc.CreateEmpty(ctx, "u1", &model.CreateComponentRequest{Framework: "html", Name: "Landing"})
			So(err, ShouldBeNil)
			So(comp.CurrentCode, ShouldEqual, defaultHTMLCode)
			So(comp.Name, ShouldEqual, "Landing")
		})

		Convey("非法框架被拒绝", func() {
			_, err := svc.CreateEmpty(ctx, "u1", &model.CreateComponentRequest{Framework: "vue"})
			So(err, ShouldEqual, ErrInvalidFramework)
		})
	})
}

func TestGenerate(t *testing.T) {
	Convey("新建并生成", t, func() {
		repo := newMemRepo()
		ctx := context.Background()

		Convey("成功时产生版本1和两条消息", func() {
			svc, coord := newTestService(repo, &fakeCompleter{result: &ai.GenerationResult{Code: genCode}})
			defer coord.Close()

			resp, err := svc.Generate(ctx, "u1", &model.GenerateComponentRequest{
				Framework: "react",
				Prompt:    "a pricing card with three tiers",
			}, nil, "")
			So(err, ShouldBeNil)
			So(resp.Version, ShouldEqual, 1)
			So(resp.Code, ShouldEqual, genCode)
			So(resp.Name, ShouldNotBeEmpty)

			detail, err := svc.Get(ctx, "u1", resp.ID)
			So(err, ShouldBeNil)
			So(detail.Component.CurrentCode, ShouldEqual, genCode)
			So(len(detail.Conversation), ShouldEqual, 2)
			So(detail.Conversation[0].Role, ShouldEqual, model.RoleUser)
			So(detail.Conversation[1].Code, ShouldEqual, genCode)

			versions, err := svc.ListVersions(ctx, "u1", resp.ID)
			So(err, ShouldBeNil)
			So(len(versions), ShouldEqual, 1)
			So(versions[0].Number, ShouldEqual, 1)
		})

		Convey("失败时落库失败轮次，不产生版本", func() {
			svc, coord := newTestService(repo, &fakeCompleter{result: &ai.GenerationResult{FailureReason: "model timeout"}})
			defer coord.Close()

			_, err := svc.Generate(ctx, "u1", &model.GenerateComponentRequest{
				Framework: "react",
				Prompt:    "a pricing card",
			}, nil, "")
			So(err, ShouldNotBeNil)
			var genErr *GenerationError
			So(errors.As(err, &genErr), ShouldBeTrue)
			So(genErr.Reason, ShouldEqual, "model timeout")

			// 组件仍然存在，起始代码未被污染
			list, err := svc.List(ctx, "u1")
			So(err, ShouldBeNil)
			So(len(list), ShouldEqual, 1)

			detail, err := svc.Get(ctx, "u1", list[0].ID)
			So(err, ShouldBeNil)
			So(detail.Component.Version, ShouldEqual, 0)
			So(detail.Component.CurrentCode, ShouldEqual, defaultReactCode)
			So(len(detail.Conversation), ShouldEqual, 2)
			So(detail.Conversation[1].Error, ShouldBeTrue)
		})

		Convey("非法框架直接拒绝", func() {
			svc, coord := newTestService(repo, &fakeCompleter{result: &ai.GenerationResult{Code: genCode}})
			defer coord.Close()

			_, err := svc.Generate(ctx, "u1", &model.GenerateComponentRequest{Framework: "svelte", Prompt: "x"}, nil, "")
			So(err, ShouldEqual, ErrInvalidFramework)
		})
	})
}

func TestChat(t *testing.T) {
	Convey("会话式更新", t, func() {
		repo := newMemRepo()
		ctx := context.Background()

		seed := func(svc *StudioService) string {
			resp, err := svc.Generate(ctx, "u1", &model.GenerateComponentRequest{
				Framework: "react",
				Prompt:    "a button",
			}, nil, "")
			So(err, ShouldBeNil)
			return resp.ID
		}

		Convey("每轮成功生成推进一个版本", func() {
			svc, coord := newTestService(repo, &fakeCompleter{result: &ai.GenerationResult{Code: genCode}})
			defer coord.Close()
			compID := seed(svc)

			resp, err := svc.Chat(ctx, "u1", compID, &model.ChatRequest{Message: "make it blue"}, nil, "")
			So(err, ShouldBeNil)
			So(resp.Version, ShouldEqual, 2)

			versions, err := svc.ListVersions(ctx, "u1", compID)
			So(err, ShouldBeNil)
			So(len(versions), ShouldEqual, 2)
			So(versions[1].Number, ShouldEqual, 2)
		})

		Convey("生成中再次 Chat 返回 ErrBusy", func() {
			completer := &fakeCompleter{result: &ai.GenerationResult{Code: genCode}, block: make(chan struct{})}
			svc, coord := newTestService(repo, completer)
			defer coord.Close()

			completer.block = nil
			compID := seed(svc)
			completer.block = make(chan struct{})

			started := make(chan struct{})
			done := make(chan error, 1)
			go func() {
				close(started)
				_, err := svc.Chat(ctx, "u1", compID, &model.ChatRequest{Message: "slow"}, nil, "")
				done <- err
			}()
			<-started
			time.Sleep(30 * time.Millisecond)

			_, err := svc.Chat(ctx, "u1", compID, &model.ChatRequest{Message: "second"}, nil, "")
			So(errors.Is(err, componentsync.ErrBusy), ShouldBeTrue)

			close(completer.block)
			So(<-done, ShouldBeNil)
		})

		Convey("其他用户的组件表现为不存在", func() {
			svc, coord := newTestService(repo, &fakeCompleter{result: &ai.GenerationResult{Code: genCode}})
			defer coord.Close()
			compID := seed(svc)

			_, err := svc.Chat(ctx, "u2", compID, &model.ChatRequest{Message: "steal"}, nil, "")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestUpdateAndBuffer(t *testing.T) {
	Convey("直接更新与缓冲区", t, func() {
		repo := newMemRepo()
		svc, coord := newTestService(repo, &fakeCompleter{result: &ai.GenerationResult{Code: genCode}})
		defer coord.Close()
		ctx := context.Background()

		comp, err := svc.CreateEmpty(ctx, "u1", &model.CreateComponentRequest{})
		So(err, ShouldBeNil)

		Convey("版本匹配的更新生效且不推进版本", func() {
			code := "export default function W() { return null; }"
			updated, err := svc.Update(ctx, "u1", comp.ID, &model.UpdateComponentRequest{
				CurrentCode:     &code,
				ExpectedVersion: 0,
			})
			So(err, ShouldBeNil)
			So(updated.CurrentCode, ShouldEqual, code)
			So(updated.Version, ShouldEqual, 0)
		})

		Convey("版本不匹配返回 ErrConflict", func() {
			code := "whatever"
			_, err := svc.Update(ctx, "u1", comp.ID, &model.UpdateComponentRequest{
				CurrentCode:     &code,
				ExpectedVersion: 7,
			})
			So(errors.Is(err, repository.ErrConflict), ShouldBeTrue)
		})

		Convey("缓冲区编辑防抖后落库", func() {
			buffered := "export default function W() { return <p>draft</p>; }"
			So(svc.UpdateBuffer(ctx, "u1", comp.ID, buffered), ShouldBeNil)

			deadline := time.Now().Add(2 * time.Second)
			for {
				got, err := repo.FindByID(ctx, "u1", comp.ID)
				So(err, ShouldBeNil)
				if got.CurrentCode == buffered {
					break
				}
				if time.Now().After(deadline) {
					t.Fatal("等待防抖提交超时")
				}
				time.Sleep(10 * time.Millisecond)
			}
		})

		Convey("入口缺失时预览返回错误面板文档", func() {
			So(svc.UpdateBuffer(ctx, "u1", comp.ID, "const helper = 1;"), ShouldBeNil)

			doc, err := svc.Preview(ctx, "u1", comp.ID)
			So(err, ShouldBeNil)
			So(doc, ShouldContainSubstring, "预览装配失败")
		})

		Convey("预览反映未落库的缓冲区", func() {
			buffered := "export default function Draft() { return <p>draft preview</p>; }"
			So(svc.UpdateBuffer(ctx, "u1", comp.ID, buffered), ShouldBeNil)

			doc, err := svc.Preview(ctx, "u1", comp.ID)
			So(err, ShouldBeNil)
			So(doc, ShouldContainSubstring, "draft preview")
			So(doc, ShouldContainSubstring, "React.createElement(Draft)")
		})
	})
}

func TestDelete(t *testing.T) {
	Convey("删除组件", t, func() {
		repo := newMemRepo()
		svc, coord := newTestService(repo, &fakeCompleter{result: &ai.GenerationResult{Code: genCode}})
		defer coord.Close()
		ctx := context.Background()

		resp, err := svc.Generate(ctx, "u1", &model.GenerateComponentRequest{Framework: "react", Prompt: "a card"}, nil, "")
		So(err, ShouldBeNil)

		So(svc.Delete(ctx, "u1", resp.ID), ShouldBeNil)

		_, err = svc.Get(ctx, "u1", resp.ID)
		So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)

		Convey("重复删除返回 ErrNotFound", func() {
			So(errors.Is(svc.Delete(ctx, "u1", resp.ID), repository.ErrNotFound), ShouldBeTrue)
		})
	})
}
