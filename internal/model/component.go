package model

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Framework 目标框架标签（封闭集合）
type Framework string

const (
	FrameworkReact Framework = "react" // JSX 组件 + Tailwind
	FrameworkHTML  Framework = "html"  // 单文件 HTML，内联 CSS/JS
)

// Valid 判断框架标签是否合法
func (f Framework) Valid() bool {
	return f == FrameworkReact || f == FrameworkHTML
}

// Component 组件实体（领域意义上的"组件"：代码 + 样式令牌 + 对话的持久化单元）
// 只能被其创建者读写；只通过已接受的生成结果或显式编辑提交变更
type Component struct {
	ID     string `bson:"id" json:"id"` // 组件ID（紧凑UUID）
	UserID string `bson:"user_id" json:"user_id"`

	Name      string    `bson:"name" json:"name"`
	Framework Framework `bson:"framework" json:"framework"`

	// CurrentCode 始终等于最新 CodeVersion 的代码文本
	CurrentCode string `bson:"current_code" json:"current_code"`

	// StyleTokens 键值对，生成的代码通过 CSS 自定义属性间接引用
	StyleTokens map[string]string `bson:"style_tokens,omitempty" json:"style_tokens,omitempty"`

	// Version 最新已接受的版本号（0 表示还没有生成过）
	Version int `bson:"version" json:"version"`

	// MessageSeq 最后一条消息的序列位置，消息排序依据
	MessageSeq int `bson:"message_seq" json:"-"`

	// ImageKey 参考图片的存储 key，后续生成请求会继续携带
	ImageKey string `bson:"image_key,omitempty" json:"image_key,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Collection 返回集合名称
func (c *Component) Collection() string { return "components" }

// EnsureIndexes 创建和维护索引
func (c *Component) EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(c.Collection())
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetName("idx_id").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "updated_at", Value: -1}},
			Options: options.Index().SetName("idx_user_updated"),
		},
	}
	_, err := coll.Indexes().CreateMany(ctx, indexes)
	return err
}

// Role 消息角色
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ConversationMessage 对话消息（按组件作用域，只追加）
// 排序依据是 Seq 而不是时间戳：时钟偏移下重放依然稳定
type ConversationMessage struct {
	ID          string `bson:"id" json:"id"`
	ComponentID string `bson:"component_id" json:"component_id"`
	UserID      string `bson:"user_id" json:"-"`

	Role    Role   `bson:"role" json:"role"`
	Content string `bson:"content" json:"content"`

	// Code 可选的代码载荷（assistant 消息携带生成的产物）
	Code string `bson:"code,omitempty" json:"code,omitempty"`

	// Error 失败的 assistant 轮次标记；此时没有产生新版本
	Error bool `bson:"error,omitempty" json:"error,omitempty"`

	// Seq 组件内严格递增的序列位置
	Seq int `bson:"seq" json:"seq"`

	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// Collection 返回集合名称
func (m *ConversationMessage) Collection() string { return "messages" }

// EnsureIndexes 创建和维护索引
func (m *ConversationMessage) EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(m.Collection())
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "component_id", Value: 1}, {Key: "seq", Value: 1}},
			Options: options.Index().SetName("idx_component_seq").SetUnique(true),
		},
	}
	_, err := coll.Indexes().CreateMany(ctx, indexes)
	return err
}

// CodeVersion 不可变的代码快照
// 版本号从 1 开始、组件内严格递增、无空洞无重复
type CodeVersion struct {
	ID          string `bson:"id" json:"id"`
	ComponentID string `bson:"component_id" json:"component_id"`

	Number int    `bson:"number" json:"number"`
	Code   string `bson:"code" json:"code"`

	// Summary 触发这次生成的用户消息
	Summary string `bson:"summary,omitempty" json:"summary,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Collection 返回集合名称
func (v *CodeVersion) Collection() string { return "code_versions" }

// EnsureIndexes 创建和维护索引
func (v *CodeVersion) EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(v.Collection())
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "component_id", Value: 1}, {Key: "number", Value: 1}},
			Options: options.Index().SetName("idx_component_number").SetUnique(true),
		},
	}
	_, err := coll.Indexes().CreateMany(ctx, indexes)
	return err
}
