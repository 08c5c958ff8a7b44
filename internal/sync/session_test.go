package sync

import (
	"context"
	"errors"
	stdsync "sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"atelier/internal/config"
)

// commitRecorder 记录提交调用的测试桩
type commitRecorder struct {
	mu      stdsync.Mutex
	commits []string
	err     error
	notify  chan struct{}
}

func newCommitRecorder() *commitRecorder {
	return &commitRecorder{notify: make(chan struct{}, 16)}
}

func (r *commitRecorder) commit(_ context.Context, _ string, _ ComponentRef, content string) error {
	r.mu.Lock()
	err := r.err
	if err == nil {
		r.commits = append(r.commits, content)
	}
	r.mu.Unlock()
	select {
	case r.notify <- struct{}{}:
	default:
	}
	return err
}

func (r *commitRecorder) setErr(err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
}

func (r *commitRecorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.commits))
	copy(out, r.commits)
	return out
}

func (r *commitRecorder) waitCommit(t *testing.T) {
	t.Helper()
	select {
	case <-r.notify:
	case <-time.After(2 * time.Second):
		t.Fatal("等待提交超时")
	}
}

func testCoordinator(rec *commitRecorder, debounce time.Duration) *Coordinator {
	return NewCoordinator(&config.SyncConfig{
		DebounceInterval: debounce,
		HistoryWindow:    10,
		CommitTimeout:    time.Second,
	}, rec.commit)
}

func TestSessionDebounce(t *testing.T) {
	Convey("防抖提交", t, func() {
		rec := newCommitRecorder()
		coord := testCoordinator(rec, 30*time.Millisecond)
		defer coord.Close()
		ctx := context.Background()

		Convey("连续编辑只提交最后一次内容", func() {
			s, err := coord.Acquire("u1", PersistedRef("c1"), "v0")
			So(err, ShouldBeNil)

			So(s.Edit(ctx, "v1"), ShouldBeNil)
			So(s.Edit(ctx, "v2"), ShouldBeNil)
			So(s.Edit(ctx, "v3"), ShouldBeNil)

			rec.waitCommit(t)
			So(rec.all(), ShouldResemble, []string{"v3"})

			snap, err := s.Snapshot(ctx)
			So(err, ShouldBeNil)
			So(snap.Content, ShouldEqual, "v3")
			So(snap.Dirty, ShouldBeFalse)
			So(snap.State, ShouldEqual, StateIdle)
		})

		Convey("Flush 立即提交不等防抖", func() {
			s, err := coord.Acquire("u1", PersistedRef("c2"), "v0")
			So(err, ShouldBeNil)

			So(s.Edit(ctx, "v1"), ShouldBeNil)
			So(s.Flush(ctx), ShouldBeNil)
			So(rec.all(), ShouldResemble, []string{"v1"})
		})

		Convey("缓冲区干净时 Flush 不触发提交", func() {
			s, err := coord.Acquire("u1", PersistedRef("c3"), "v0")
			So(err, ShouldBeNil)

			So(s.Flush(ctx), ShouldBeNil)
			So(rec.all(), ShouldBeEmpty)
		})

		Convey("提交失败保留脏标记，Flush 重试成功", func() {
			s, err := coord.Acquire("u1", PersistedRef("c4"), "v0")
			So(err, ShouldBeNil)

			rec.setErr(errors.New("write failed"))
			So(s.Edit(ctx, "v1"), ShouldBeNil)
			So(s.Flush(ctx), ShouldNotBeNil)

			snap, err := s.Snapshot(ctx)
			So(err, ShouldBeNil)
			So(snap.Dirty, ShouldBeTrue)

			rec.setErr(nil)
			So(s.Flush(ctx), ShouldBeNil)
			So(rec.all(), ShouldResemble, []string{"v1"})
		})
	})
}

func TestSessionGeneration(t *testing.T) {
	Convey("生成状态下的会话行为", t, func() {
		rec := newCommitRecorder()
		coord := testCoordinator(rec, 20*time.Millisecond)
		defer coord.Close()
		ctx := context.Background()

		Convey("生成中再次发起生成返回 ErrBusy", func() {
			s, err := coord.Acquire("u1", PersistedRef("g1"), "v0")
			So(err, ShouldBeNil)

			So(s.BeginGeneration(ctx), ShouldBeNil)
			So(s.BeginGeneration(ctx), ShouldEqual, ErrBusy)

			s.FinishGeneration("gen", true)
			So(s.BeginGeneration(ctx), ShouldBeNil)
			s.FinishGeneration("", false)
		})

		Convey("生成期间的编辑不触发提交", func() {
			s, err := coord.Acquire("u1", PersistedRef("g2"), "v0")
			So(err, ShouldBeNil)

			So(s.BeginGeneration(ctx), ShouldBeNil)
			So(s.Edit(ctx, "local edit"), ShouldBeNil)

			time.Sleep(80 * time.Millisecond)
			So(rec.all(), ShouldBeEmpty)

			s.FinishGeneration("generated code", true)
		})

		Convey("生成成功覆盖缓冲区，期间的编辑被丢弃", func() {
			s, err := coord.Acquire("u1", PersistedRef("g3"), "v0")
			So(err, ShouldBeNil)

			So(s.BeginGeneration(ctx), ShouldBeNil)
			So(s.Edit(ctx, "local edit"), ShouldBeNil)
			s.FinishGeneration("generated code", true)

			snap, err := s.Snapshot(ctx)
			So(err, ShouldBeNil)
			So(snap.Content, ShouldEqual, "generated code")
			So(snap.Dirty, ShouldBeFalse)
			So(snap.State, ShouldEqual, StateIdle)
		})

		Convey("生成失败保留期间的编辑并重新防抖", func() {
			s, err := coord.Acquire("u1", PersistedRef("g4"), "v0")
			So(err, ShouldBeNil)

			So(s.BeginGeneration(ctx), ShouldBeNil)
			So(s.Edit(ctx, "local edit"), ShouldBeNil)
			s.FinishGeneration("", false)

			rec.waitCommit(t)
			So(rec.all(), ShouldResemble, []string{"local edit"})
		})

		Convey("生成中 Flush 返回 ErrBusy", func() {
			s, err := coord.Acquire("u1", PersistedRef("g5"), "v0")
			So(err, ShouldBeNil)

			So(s.BeginGeneration(ctx), ShouldBeNil)
			So(s.Flush(ctx), ShouldEqual, ErrBusy)
			s.FinishGeneration("", false)
		})
	})
}

func TestCoordinator(t *testing.T) {
	Convey("协调器会话管理", t, func() {
		rec := newCommitRecorder()
		coord := testCoordinator(rec, 20*time.Millisecond)
		ctx := context.Background()

		Convey("同一组件重复 Acquire 返回同一会话", func() {
			s1, err := coord.Acquire("u1", PersistedRef("c1"), "v0")
			So(err, ShouldBeNil)
			s2, err := coord.Acquire("u1", PersistedRef("c1"), "其他初值被忽略")
			So(err, ShouldBeNil)
			So(s1, ShouldEqual, s2)
		})

		Convey("不同用户的同名组件互不干扰", func() {
			s1, err := coord.Acquire("u1", PersistedRef("c1"), "a")
			So(err, ShouldBeNil)
			s2, err := coord.Acquire("u2", PersistedRef("c1"), "b")
			So(err, ShouldBeNil)
			So(s1, ShouldNotEqual, s2)
		})

		Convey("Release 带 flush 提交未落库的编辑", func() {
			s, err := coord.Acquire("u1", PersistedRef("c2"), "v0")
			So(err, ShouldBeNil)
			So(s.Edit(ctx, "v1"), ShouldBeNil)

			So(coord.Release(ctx, "u1", PersistedRef("c2"), true), ShouldBeNil)
			So(rec.all(), ShouldResemble, []string{"v1"})

			_, ok := coord.Lookup("u1", PersistedRef("c2"))
			So(ok, ShouldBeFalse)
		})

		Convey("草稿会话不落库", func() {
			ref := EphemeralRef()
			s, err := coord.Acquire("u1", ref, "")
			So(err, ShouldBeNil)
			So(s.Edit(ctx, "draft"), ShouldBeNil)
			So(s.Flush(ctx), ShouldBeNil)
			So(rec.all(), ShouldBeEmpty)

			snap, err := s.Snapshot(ctx)
			So(err, ShouldBeNil)
			So(snap.Content, ShouldEqual, "draft")
		})

		Convey("Close 之后拒绝新会话", func() {
			s, err := coord.Acquire("u1", PersistedRef("c3"), "v0")
			So(err, ShouldBeNil)
			coord.Close()

			So(s.Edit(ctx, "x"), ShouldEqual, ErrClosed)
			_, err = coord.Acquire("u1", PersistedRef("c4"), "")
			So(err, ShouldEqual, ErrClosed)
		})
	})
}
