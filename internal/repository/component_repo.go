package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"atelier/internal/model"
	"atelier/internal/pkg/id"
	"atelier/internal/pkg/mongodb"
)

// UpdateFields 编辑提交 / 元数据更新的字段集合（nil 字段不更新）
type UpdateFields struct {
	Code        *string
	StyleTokens map[string]string
	Name        *string
}

// ComponentRepository 版本库接口
// 所有操作都以 (user_id, component_id) 为作用域；
// 外部用户的ID与不存在的ID行为一致（ErrNotFound）
type ComponentRepository interface {
	Create(ctx context.Context, comp *model.Component) error
	FindByID(ctx context.Context, userID, componentID string) (*model.Component, error)
	FindWithConversation(ctx context.Context, userID, componentID string) (*model.ComponentDetail, error)
	List(ctx context.Context, userID string) ([]*model.ComponentSummary, error)
	RecentMessages(ctx context.Context, componentID string, limit int) ([]*model.ConversationMessage, error)

	// AppendTurn 原子地追加一轮已接受的生成：
	// 用户消息 + assistant 消息（带代码载荷）+ 下一个 CodeVersion + current_code 推进。
	// 部分写入对读者永远不可见。返回新版本号。
	AppendTurn(ctx context.Context, userID, componentID string, expectedVersion int, userMsg, code, summary string) (int, error)

	// AppendFailedTurn 记录失败的生成轮次：只追加消息对（assistant 带错误标记），
	// 不产生版本，代码不变
	AppendFailedTurn(ctx context.Context, userID, componentID, userMsg, reason string) error

	// UpdateCode 编辑提交 / 元数据更新，带乐观版本检查；幂等
	UpdateCode(ctx context.Context, userID, componentID string, expectedVersion int, fields UpdateFields) error

	// CommitBuffer 会话缓冲区落库。会话是组件的单一写入者，
	// 不做版本检查也不推进版本号
	CommitBuffer(ctx context.Context, userID, componentID, content string) error

	SetImageKey(ctx context.Context, userID, componentID, key string) error
	ListVersions(ctx context.Context, userID, componentID string) ([]*model.CodeVersion, error)
	Delete(ctx context.Context, userID, componentID string) error
}

// ComponentRepo 版本库的 MongoDB 实现
type ComponentRepo struct {
	client     *mongodb.Client
	components *mongo.Collection
	messages   *mongo.Collection
	versions   *mongo.Collection
}

// NewComponentRepo 创建版本库
func NewComponentRepo(client *mongodb.Client) *ComponentRepo {
	var (
		c model.Component
		m model.ConversationMessage
		v model.CodeVersion
	)
	db := client.Database()
	return &ComponentRepo{
		client:     client,
		components: db.Collection(c.Collection()),
		messages:   db.Collection(m.Collection()),
		versions:   db.Collection(v.Collection()),
	}
}

// ownerFilter 所有者作用域过滤器
func ownerFilter(userID, componentID string) bson.M {
	return bson.M{"id": componentID, "user_id": userID}
}

// Create 创建组件
func (r *ComponentRepo) Create(ctx context.Context, comp *model.Component) error {
	now := time.Now()
	comp.CreatedAt = now
	comp.UpdatedAt = now

	_, err := r.components.InsertOne(ctx, comp)
	return err
}

// FindByID 查询组件（所有者作用域）
func (r *ComponentRepo) FindByID(ctx context.Context, userID, componentID string) (*model.Component, error) {
	var comp model.Component
	err := r.components.FindOne(ctx, ownerFilter(userID, componentID)).Decode(&comp)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &comp, nil
}

// FindWithConversation 查询组件及完整有序对话
func (r *ComponentRepo) FindWithConversation(ctx context.Context, userID, componentID string) (*model.ComponentDetail, error) {
	comp, err := r.FindByID(ctx, userID, componentID)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "seq", Value: 1}})
	cursor, err := r.messages.Find(ctx, bson.M{"component_id": componentID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var msgs []*model.ConversationMessage
	if err := cursor.All(ctx, &msgs); err != nil {
		return nil, err
	}

	return &model.ComponentDetail{Component: comp, Conversation: msgs}, nil
}

// List 查询用户的组件列表，按最近活动排序
// MessageSeq 即消息数（消息只追加，从1开始连续编号）
func (r *ComponentRepo) List(ctx context.Context, userID string) ([]*model.ComponentSummary, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cursor, err := r.components.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var comps []*model.Component
	if err := cursor.All(ctx, &comps); err != nil {
		return nil, err
	}

	summaries := make([]*model.ComponentSummary, 0, len(comps))
	for _, c := range comps {
		summaries = append(summaries, &model.ComponentSummary{
			ID:           c.ID,
			Name:         c.Name,
			Framework:    c.Framework,
			Version:      c.Version,
			MessageCount: c.MessageSeq,
			LastActivity: c.UpdatedAt,
			CreatedAt:    c.CreatedAt,
		})
	}
	return summaries, nil
}

// RecentMessages 查询最近的 limit 条消息，按序列位置升序返回
func (r *ComponentRepo) RecentMessages(ctx context.Context, componentID string, limit int) ([]*model.ConversationMessage, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "seq", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.messages.Find(ctx, bson.M{"component_id": componentID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var msgs []*model.ConversationMessage
	if err := cursor.All(ctx, &msgs); err != nil {
		return nil, err
	}

	// 倒序查询结果翻转回时间正序
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// AppendTurn 原子追加一轮已接受的生成
func (r *ComponentRepo) AppendTurn(ctx context.Context, userID, componentID string, expectedVersion int, userMsg, code, summary string) (int, error) {
	newVersion := expectedVersion + 1

	err := r.client.WithTransaction(ctx, func(sc mongo.SessionContext) error {
		var comp model.Component
		if err := r.components.FindOne(sc, ownerFilter(userID, componentID)).Decode(&comp); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return ErrNotFound
			}
			return err
		}
		if comp.Version != expectedVersion {
			return ErrConflict
		}

		now := time.Now()
		docs := []interface{}{
			&model.ConversationMessage{
				ID:          id.NewCompact(),
				ComponentID: componentID,
				UserID:      userID,
				Role:        model.RoleUser,
				Content:     userMsg,
				Seq:         comp.MessageSeq + 1,
				Timestamp:   now,
			},
			&model.ConversationMessage{
				ID:          id.NewCompact(),
				ComponentID: componentID,
				UserID:      userID,
				Role:        model.RoleAssistant,
				Content:     code,
				Code:        code,
				Seq:         comp.MessageSeq + 2,
				Timestamp:   now,
			},
		}
		if _, err := r.messages.InsertMany(sc, docs); err != nil {
			return err
		}

		version := &model.CodeVersion{
			ID:          id.NewCompact(),
			ComponentID: componentID,
			Number:      newVersion,
			Code:        code,
			Summary:     summary,
			CreatedAt:   now,
		}
		if _, err := r.versions.InsertOne(sc, version); err != nil {
			return err
		}

		// 乐观过滤器：并发写入者在这里看到 Conflict 而不是静默覆盖
		res, err := r.components.UpdateOne(sc,
			bson.M{"id": componentID, "user_id": userID, "version": expectedVersion},
			bson.M{"$set": bson.M{
				"current_code": code,
				"version":      newVersion,
				"message_seq":  comp.MessageSeq + 2,
				"updated_at":   now,
			}},
		)
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return ErrConflict
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return newVersion, nil
}

// AppendFailedTurn 记录失败的生成轮次
func (r *ComponentRepo) AppendFailedTurn(ctx context.Context, userID, componentID, userMsg, reason string) error {
	return r.client.WithTransaction(ctx, func(sc mongo.SessionContext) error {
		var comp model.Component
		if err := r.components.FindOne(sc, ownerFilter(userID, componentID)).Decode(&comp); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return ErrNotFound
			}
			return err
		}

		now := time.Now()
		docs := []interface{}{
			&model.ConversationMessage{
				ID:          id.NewCompact(),
				ComponentID: componentID,
				UserID:      userID,
				Role:        model.RoleUser,
				Content:     userMsg,
				Seq:         comp.MessageSeq + 1,
				Timestamp:   now,
			},
			&model.ConversationMessage{
				ID:          id.NewCompact(),
				ComponentID: componentID,
				UserID:      userID,
				Role:        model.RoleAssistant,
				Content:     reason,
				Error:       true,
				Seq:         comp.MessageSeq + 2,
				Timestamp:   now,
			},
		}
		if _, err := r.messages.InsertMany(sc, docs); err != nil {
			return err
		}

		_, err := r.components.UpdateOne(sc,
			ownerFilter(userID, componentID),
			bson.M{"$set": bson.M{
				"message_seq": comp.MessageSeq + 2,
				"updated_at":  now,
			}},
		)
		return err
	})
}

// UpdateCode 编辑提交 / 元数据更新
// 不推进版本号：版本是生成产物的编号，自由编辑只移动工作副本
func (r *ComponentRepo) UpdateCode(ctx context.Context, userID, componentID string, expectedVersion int, fields UpdateFields) error {
	set := bson.M{"updated_at": time.Now()}
	if fields.Code != nil {
		set["current_code"] = *fields.Code
	}
	if fields.StyleTokens != nil {
		set["style_tokens"] = fields.StyleTokens
	}
	if fields.Name != nil {
		set["name"] = *fields.Name
	}

	res, err := r.components.UpdateOne(ctx,
		bson.M{"id": componentID, "user_id": userID, "version": expectedVersion},
		bson.M{"$set": set},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		// 区分"不存在/不属于你"与"版本已被推进"
		if _, err := r.FindByID(ctx, userID, componentID); err != nil {
			return err
		}
		return ErrConflict
	}
	return nil
}

// CommitBuffer 会话缓冲区落库
func (r *ComponentRepo) CommitBuffer(ctx context.Context, userID, componentID, content string) error {
	res, err := r.components.UpdateOne(ctx,
		ownerFilter(userID, componentID),
		bson.M{"$set": bson.M{"current_code": content, "updated_at": time.Now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetImageKey 记录参考图片的存储 key
func (r *ComponentRepo) SetImageKey(ctx context.Context, userID, componentID, key string) error {
	res, err := r.components.UpdateOne(ctx,
		ownerFilter(userID, componentID),
		bson.M{"$set": bson.M{"image_key": key, "updated_at": time.Now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListVersions 查询组件的版本历史，按版本号升序
func (r *ComponentRepo) ListVersions(ctx context.Context, userID, componentID string) ([]*model.CodeVersion, error) {
	if _, err := r.FindByID(ctx, userID, componentID); err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "number", Value: 1}})
	cursor, err := r.versions.Find(ctx, bson.M{"component_id": componentID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var versions []*model.CodeVersion
	if err := cursor.All(ctx, &versions); err != nil {
		return nil, err
	}
	return versions, nil
}

// Delete 删除组件，级联删除其消息和版本
func (r *ComponentRepo) Delete(ctx context.Context, userID, componentID string) error {
	return r.client.WithTransaction(ctx, func(sc mongo.SessionContext) error {
		res, err := r.components.DeleteOne(sc, ownerFilter(userID, componentID))
		if err != nil {
			return err
		}
		if res.DeletedCount == 0 {
			return ErrNotFound
		}

		if _, err := r.messages.DeleteMany(sc, bson.M{"component_id": componentID}); err != nil {
			return err
		}
		_, err = r.versions.DeleteMany(sc, bson.M{"component_id": componentID})
		return err
	})
}
