package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "atelier/docs"
	"atelier/internal/ai"
	"atelier/internal/config"
	"atelier/internal/handler"
	componentHandler "atelier/internal/handler/component"
	"atelier/internal/pkg/cache"
	"atelier/internal/pkg/jwt"
	"atelier/internal/pkg/mongodb"
	"atelier/internal/pkg/storagefactory"
	"atelier/internal/repository"
	"atelier/internal/sandbox"
	"atelier/internal/server/middleware"
	"atelier/internal/service"
	componentsync "atelier/internal/sync"
)

// Server HTTP 服务器
type Server struct {
	cfg      *config.Config
	engine   *gin.Engine
	mongo    *mongodb.Client
	redis    *cache.RedisCache
	sessions *componentsync.Coordinator
}

// New 创建服务器实例
func New(cfg *config.Config) (*Server, error) {
	// 设置 Gin 模式
	switch cfg.Server.Mode {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// 初始化 MongoDB（版本库依赖，必须可用）
	if cfg.Mongo.URI == "" {
		return nil, errors.New("mongo.uri is required")
	}
	mongoClient, err := mongodb.New(&cfg.Mongo)
	if err != nil {
		return nil, err
	}
	log.Info().Str("database", cfg.Mongo.Database).Msg("connected to MongoDB")

	if err := mongodb.EnsureIndexes(mongoClient.Database()); err != nil {
		log.Warn().Err(err).Msg("failed to ensure indexes")
	}

	// 初始化 Redis（可选，缺失时读路径直接落库）
	var redisCache *cache.RedisCache
	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRedisCache(&cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to Redis, continuing without it")
		} else {
			redisCache = rc
			log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to Redis")
		}
	}

	// 初始化参考图存储（可选）
	store, err := storagefactory.NewStorage(context.Background(), &cfg.Storage)
	if err != nil {
		log.Warn().Err(err).Msg("failed to initialize storage, continuing without reference images")
		store = nil
	}

	// 初始化生成客户端
	aiClient, err := ai.NewClient(context.Background(), &cfg.AI)
	if err != nil {
		return nil, err
	}
	log.Info().Str("provider", cfg.AI.Provider).Str("model", cfg.AI.Model).Msg("initialized generation client")

	// 版本库 + 同步协调器
	repo := repository.NewComponentRepo(mongoClient)
	sessions := componentsync.NewCoordinator(&cfg.Sync, func(ctx context.Context, userID string, ref componentsync.ComponentRef, content string) error {
		if err := repo.CommitBuffer(ctx, userID, ref.ID, content); err != nil {
			return err
		}
		if redisCache != nil {
			if err := redisCache.Delete(ctx, cache.ComponentCacheKey(userID, ref.ID)); err != nil {
				log.Warn().Err(err).Str("component_id", ref.ID).Msg("组件缓存失效失败")
			}
		}
		return nil
	})

	studio := service.NewStudioService(
		repo,
		aiClient,
		sessions,
		redisCache,
		store,
		sandbox.NewRenderer(&cfg.Sandbox),
		&cfg.Sync,
	)

	srv := &Server{
		cfg:      cfg,
		engine:   engine,
		mongo:    mongoClient,
		redis:    redisCache,
		sessions: sessions,
	}

	srv.setupRoutes(studio)
	return srv, nil
}

// setupRoutes 设置路由
func (s *Server) setupRoutes(studio *service.StudioService) {
	// 全局中间件
	s.engine.Use(middleware.Recovery())
	s.engine.Use(middleware.RequestID())
	s.engine.Use(middleware.Logger())
	s.engine.Use(middleware.CORS())

	// 健康检查
	healthHandler := handler.NewHealthHandler(s.mongo, s.redis)
	s.engine.GET("/health", healthHandler.Health)
	s.engine.GET("/ready", healthHandler.Ready)

	// Swagger 文档
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	jwtSecret := s.cfg.Auth.JWTSecret
	if jwtSecret == "" {
		jwtSecret = "default-secret-key-change-in-production"
		log.Warn().Msg("JWT secret not configured, using default (NOT SECURE for production)")
	}
	jwtUtil := jwt.NewJWT(jwtSecret)

	// API v1
	v1 := s.engine.Group("/api/v1")
	v1.Use(middleware.Auth(jwtUtil))
	{
		comp := componentHandler.NewHandler(studio)

		v1.POST("/components/generate", comp.Generate)
		v1.POST("/components", comp.Create)
		v1.GET("/components", comp.List)
		v1.GET("/components/:id", comp.Get)
		v1.PUT("/components/:id", comp.Update)
		v1.DELETE("/components/:id", comp.Delete)

		v1.POST("/components/:id/chat", comp.Chat)
		v1.PUT("/components/:id/buffer", comp.UpdateBuffer)
		v1.GET("/components/:id/versions", comp.ListVersions)
		v1.GET("/components/:id/preview", comp.Preview)
	}
}

// Run 启动服务器
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down server...")

		// 先停收新请求，再放掉会话和连接
		shutdownErr := srv.Shutdown(context.Background())

		s.sessions.Close()
		if s.mongo != nil {
			if err := s.mongo.Close(context.Background()); err != nil {
				log.Error().Err(err).Msg("failed to close MongoDB connection")
			}
		}
		if s.redis != nil {
			if err := s.redis.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close Redis connection")
			}
		}

		return shutdownErr
	case err := <-errCh:
		return err
	}
}
