package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"atelier/internal/model"
)

// EnsureIndexes 创建所有模型的索引
// 在应用启动时调用；所有实体都实现了 Model 接口
func EnsureIndexes(db *mongo.Database) error {
	ctx := context.Background()

	models := []Model{
		&model.Component{},
		&model.ConversationMessage{},
		&model.CodeVersion{},
	}

	return EnsureAllIndexes(ctx, db, models...)
}
