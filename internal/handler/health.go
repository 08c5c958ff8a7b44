package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"atelier/internal/pkg/cache"
	"atelier/internal/pkg/mongodb"
)

// HealthHandler 健康检查处理器
type HealthHandler struct {
	mongo *mongodb.Client
	redis *cache.RedisCache
}

// NewHealthHandler 创建健康检查处理器，依赖允许为 nil
func NewHealthHandler(mongo *mongodb.Client, redis *cache.RedisCache) *HealthHandler {
	return &HealthHandler{mongo: mongo, redis: redis}
}

// Health 存活检查
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Ready 就绪检查，探测已配置的依赖
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx := c.Request.Context()
	deps := gin.H{}
	ready := true

	if h.mongo != nil {
		if err := h.mongo.Client().Ping(ctx, readpref.Primary()); err != nil {
			deps["mongo"] = err.Error()
			ready = false
		} else {
			deps["mongo"] = "ok"
		}
	}
	if h.redis != nil {
		if err := h.redis.Client().Ping(ctx).Err(); err != nil {
			deps["redis"] = err.Error()
			ready = false
		} else {
			deps["redis"] = "ok"
		}
	}

	status := http.StatusOK
	state := "ready"
	if !ready {
		status = http.StatusServiceUnavailable
		state = "degraded"
	}
	c.JSON(status, gin.H{
		"status":       state,
		"dependencies": deps,
	})
}
