// Package sync 维护每个组件的编辑会话：缓冲区、防抖提交和生成期间的单飞控制。
package sync

import (
	"context"
	stdsync "sync"
	"time"

	"atelier/internal/config"
)

// Coordinator 会话协调器
// 每个 (用户, 组件) 至多一个会话，按需创建、显式释放
type Coordinator struct {
	mu       stdsync.Mutex
	sessions map[string]*Session
	commit   CommitFunc

	debounce      time.Duration
	commitTimeout time.Duration
	closed        bool
}

// NewCoordinator 创建协调器
func NewCoordinator(cfg *config.SyncConfig, commit CommitFunc) *Coordinator {
	debounce := cfg.DebounceInterval
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	commitTimeout := cfg.CommitTimeout
	if commitTimeout <= 0 {
		commitTimeout = 5 * time.Second
	}
	return &Coordinator{
		sessions:      make(map[string]*Session),
		commit:        commit,
		debounce:      debounce,
		commitTimeout: commitTimeout,
	}
}

func sessionKey(userID string, ref ComponentRef) string {
	return userID + "/" + ref.ID
}

// Acquire 获取组件的编辑会话，不存在则以 initial 为缓冲区初值创建
func (c *Coordinator) Acquire(userID string, ref ComponentRef, initial string) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}

	key := sessionKey(userID, ref)
	if s, ok := c.sessions[key]; ok {
		return s, nil
	}

	s := newSession(userID, ref, initial, c.commit, c.debounce, c.commitTimeout)
	c.sessions[key] = s
	return s, nil
}

// Lookup 查找已存在的会话，不创建
func (c *Coordinator) Lookup(userID string, ref ComponentRef) (*Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[sessionKey(userID, ref)]
	return s, ok
}

// Release 关闭并移除会话；flush 为真时先尝试提交未落库的编辑
func (c *Coordinator) Release(ctx context.Context, userID string, ref ComponentRef, flush bool) error {
	c.mu.Lock()
	key := sessionKey(userID, ref)
	s, ok := c.sessions[key]
	delete(c.sessions, key)
	c.mu.Unlock()

	if !ok {
		return nil
	}

	var err error
	if flush {
		err = s.Flush(ctx)
	}
	s.Close()
	return err
}

// Close 关闭所有会话，未提交的编辑被丢弃
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	for key, s := range c.sessions {
		s.Close()
		delete(c.sessions, key)
	}
}
