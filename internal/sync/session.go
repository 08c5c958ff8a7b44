package sync

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
)

var (
	// ErrBusy 该组件已有一次生成在进行中
	ErrBusy = errors.New("组件正在生成中，请等待当前生成完成")
	// ErrClosed 会话已关闭
	ErrClosed = errors.New("会话已关闭")
)

// State 会话状态
type State int

const (
	// StateIdle 空闲，缓冲区与版本库一致
	StateIdle State = iota
	// StateEditing 缓冲区有未提交的编辑，防抖计时中
	StateEditing
	// StateCommitting 正在把缓冲区写回版本库
	StateCommitting
	// StateGenerating 正在等待模型生成，编辑不会触发提交
	StateGenerating
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateEditing:
		return "editing"
	case StateCommitting:
		return "committing"
	case StateGenerating:
		return "generating"
	default:
		return "unknown"
	}
}

// Snapshot 缓冲区的一致性读
type Snapshot struct {
	Content string
	State   State
	Dirty   bool
}

// CommitFunc 把缓冲区内容写回版本库的回调
// 由服务层注入，会话自身不依赖存储
type CommitFunc func(ctx context.Context, userID string, ref ComponentRef, content string) error

type editCmd struct {
	content string
}

type flushCmd struct {
	reply chan error
}

type beginGenCmd struct {
	reply chan error
}

type finishGenCmd struct {
	code     string
	accepted bool
	done     chan struct{}
}

type snapshotCmd struct {
	reply chan Snapshot
}

// Session 单个组件的编辑会话
// 所有可变状态只被 run 协程触碰，外部通过命令通道交互
type Session struct {
	ref           ComponentRef
	userID        string
	commit        CommitFunc
	debounce      time.Duration
	commitTimeout time.Duration

	cmds chan interface{}
	done chan struct{}

	// 以下字段仅 run 协程访问
	state  State
	buffer string
	dirty  bool
	timer  *time.Timer
}

func newSession(userID string, ref ComponentRef, initial string, commit CommitFunc, debounce, commitTimeout time.Duration) *Session {
	s := &Session{
		ref:           ref,
		userID:        userID,
		commit:        commit,
		debounce:      debounce,
		commitTimeout: commitTimeout,
		cmds:          make(chan interface{}, 16),
		done:          make(chan struct{}),
		state:         StateIdle,
		buffer:        initial,
	}
	go s.run()
	return s
}

// Edit 把一次编辑写入缓冲区并重置防抖计时
func (s *Session) Edit(ctx context.Context, content string) error {
	select {
	case s.cmds <- editCmd{content: content}:
		return nil
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Flush 立即提交缓冲区，等待提交结果
func (s *Session) Flush(ctx context.Context) error {
	reply := make(chan error, 1)
	select {
	case s.cmds <- flushCmd{reply: reply}:
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// BeginGeneration 进入生成状态；已有生成在进行中时返回 ErrBusy
func (s *Session) BeginGeneration(ctx context.Context) error {
	reply := make(chan error, 1)
	select {
	case s.cmds <- beginGenCmd{reply: reply}:
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// FinishGeneration 结束生成状态
// accepted 为真时用生成结果覆盖缓冲区；生成期间的编辑被丢弃并记录告警
func (s *Session) FinishGeneration(code string, accepted bool) {
	done := make(chan struct{})
	select {
	case s.cmds <- finishGenCmd{code: code, accepted: accepted, done: done}:
	case <-s.done:
		return
	}
	select {
	case <-done:
	case <-s.done:
	}
}

// Snapshot 读取缓冲区当前内容和状态
func (s *Session) Snapshot(ctx context.Context) (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	select {
	case s.cmds <- snapshotCmd{reply: reply}:
	case <-s.done:
		return Snapshot{}, ErrClosed
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
	select {
	case snap := <-reply:
		return snap, nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

// Close 关闭会话，丢弃未提交的编辑
func (s *Session) Close() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}

func (s *Session) timerC() <-chan time.Time {
	if s.timer == nil {
		return nil
	}
	return s.timer.C
}

func (s *Session) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session) armTimer() {
	s.stopTimer()
	s.timer = time.NewTimer(s.debounce)
}

func (s *Session) run() {
	defer s.stopTimer()
	for {
		select {
		case <-s.done:
			return
		case <-s.timerC():
			s.timer = nil
			s.commitNow()
		case cmd := <-s.cmds:
			s.handle(cmd)
		}
	}
}

func (s *Session) handle(cmd interface{}) {
	switch c := cmd.(type) {
	case editCmd:
		s.buffer = c.content
		s.dirty = true
		if s.state == StateGenerating {
			// 生成期间不提交，结果落地时统一处理
			return
		}
		s.state = StateEditing
		s.armTimer()

	case flushCmd:
		if s.state == StateGenerating {
			c.reply <- ErrBusy
			return
		}
		s.stopTimer()
		c.reply <- s.commitNow()

	case beginGenCmd:
		if s.state == StateGenerating {
			c.reply <- ErrBusy
			return
		}
		s.stopTimer()
		s.state = StateGenerating
		c.reply <- nil

	case finishGenCmd:
		if c.accepted {
			if s.dirty {
				log.Warn().
					Str("component_id", s.ref.ID).
					Str("user_id", s.userID).
					Msg("生成期间的编辑被生成结果覆盖")
			}
			s.buffer = c.code
			s.dirty = false
			s.state = StateIdle
		} else {
			s.state = StateIdle
			if s.dirty {
				s.state = StateEditing
				s.armTimer()
			}
		}
		close(c.done)

	case snapshotCmd:
		c.reply <- Snapshot{Content: s.buffer, State: s.state, Dirty: s.dirty}
	}
}

// commitNow 在 run 协程内同步提交缓冲区
// 提交失败时保留脏标记，下一次编辑或 Flush 会重试
func (s *Session) commitNow() error {
	if !s.dirty {
		s.state = StateIdle
		return nil
	}
	if !s.ref.Persisted() {
		// 草稿没有落库目标，缓冲区本身就是事实
		s.state = StateIdle
		s.dirty = false
		return nil
	}

	s.state = StateCommitting
	ctx, cancel := context.WithTimeout(context.Background(), s.commitTimeout)
	defer cancel()

	err := s.commit(ctx, s.userID, s.ref, s.buffer)
	if err != nil {
		log.Warn().Err(err).
			Str("component_id", s.ref.ID).
			Str("user_id", s.userID).
			Msg("缓冲区提交失败")
		s.state = StateEditing
		return err
	}

	s.dirty = false
	s.state = StateIdle
	return nil
}
