package sync

import (
	"atelier/internal/pkg/id"
)

// RefKind 会话引用的种类
type RefKind int

const (
	// RefPersisted 已持久化的组件，编辑会被防抖提交到版本库
	RefPersisted RefKind = iota
	// RefEphemeral 未保存的草稿，只存在于会话缓冲区
	RefEphemeral
)

// ComponentRef 会话所绑定的组件引用
// 两种形态通过构造函数创建，Kind 决定提交行为
type ComponentRef struct {
	Kind RefKind
	ID   string
}

// PersistedRef 指向已持久化组件的引用
func PersistedRef(componentID string) ComponentRef {
	return ComponentRef{Kind: RefPersisted, ID: componentID}
}

// EphemeralRef 新建草稿的引用，ID 仅用于会话寻址
func EphemeralRef() ComponentRef {
	return ComponentRef{Kind: RefEphemeral, ID: id.NewCompact()}
}

// Persisted 是否指向持久化组件
func (r ComponentRef) Persisted() bool {
	return r.Kind == RefPersisted
}
