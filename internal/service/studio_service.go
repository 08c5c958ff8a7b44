package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"

	"atelier/internal/ai"
	"atelier/internal/config"
	"atelier/internal/model"
	"atelier/internal/pkg/cache"
	"atelier/internal/pkg/id"
	"atelier/internal/pkg/namegen"
	"atelier/internal/pkg/storage"
	"atelier/internal/repository"
	"atelier/internal/sandbox"
	componentsync "atelier/internal/sync"
)

// Completer 面向服务层的生成接口
type Completer interface {
	Generate(ctx context.Context, req *ai.GenerationRequest) *ai.GenerationResult
}

// StudioService 组件工坊核心服务
// 串起版本库、同步协调器、生成客户端和沙箱装配器
type StudioService struct {
	repo     repository.ComponentRepository
	ai       Completer
	sessions *componentsync.Coordinator
	cache    *cache.RedisCache
	store    storage.Storage
	renderer *sandbox.Renderer
	names    *namegen.Generator

	historyWindow int
}

// NewStudioService 创建服务
// cache 和 store 允许为 nil，降级为无缓存、不存参考图
func NewStudioService(
	repo repository.ComponentRepository,
	completer Completer,
	sessions *componentsync.Coordinator,
	redisCache *cache.RedisCache,
	store storage.Storage,
	renderer *sandbox.Renderer,
	cfg *config.SyncConfig,
) *StudioService {
	window := 10
	if cfg != nil && cfg.HistoryWindow > 0 {
		window = cfg.HistoryWindow
	}
	return &StudioService{
		repo:          repo,
		ai:            completer,
		sessions:      sessions,
		cache:         redisCache,
		store:         store,
		renderer:      renderer,
		names:         namegen.New(),
		historyWindow: window,
	}
}

// CreateEmpty 新建空组件，带起始代码
func (s *StudioService) CreateEmpty(ctx context.Context, userID string, req *model.CreateComponentRequest) (*model.Component, error) {
	framework := model.Framework(req.Framework)
	if framework == "" {
		framework = model.FrameworkReact
	}
	if !framework.Valid() {
		return nil, ErrInvalidFramework
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = namegen.DefaultName
	}

	comp := &model.Component{
		ID:          id.NewCompact(),
		UserID:      userID,
		Name:        name,
		Framework:   framework,
		CurrentCode: starterCode(framework),
		StyleTokens: map[string]string{},
	}
	if err := s.repo.Create(ctx, comp); err != nil {
		return nil, err
	}
	return comp, nil
}

// Generate 新建组件并执行首次生成
// 生成失败时组件仍然存在，失败轮次已落库，起始代码保持不变
func (s *StudioService) Generate(ctx context.Context, userID string, req *model.GenerateComponentRequest, image []byte, imageMIME string) (*model.GenerateComponentResponse, error) {
	framework := model.Framework(req.Framework)
	if !framework.Valid() {
		return nil, ErrInvalidFramework
	}

	comp := &model.Component{
		ID:          id.NewCompact(),
		UserID:      userID,
		Name:        s.names.Derive(req.Prompt),
		Framework:   framework,
		CurrentCode: starterCode(framework),
		StyleTokens: map[string]string{},
	}
	if err := s.repo.Create(ctx, comp); err != nil {
		return nil, err
	}

	if len(image) > 0 {
		s.storeReferenceImage(ctx, userID, comp.ID, image, imageMIME)
	}

	version, code, err := s.runGeneration(ctx, userID, comp, nil, req.Prompt, image, imageMIME)
	if err != nil {
		return nil, err
	}

	return &model.GenerateComponentResponse{
		ID:      comp.ID,
		Code:    code,
		Version: version,
		Name:    comp.Name,
	}, nil
}

// Chat 对已有组件的会话式更新
// 同一组件同时只允许一次生成，冲突返回 sync.ErrBusy
func (s *StudioService) Chat(ctx context.Context, userID, componentID string, req *model.ChatRequest, image []byte, imageMIME string) (*model.ChatResponse, error) {
	comp, err := s.repo.FindByID(ctx, userID, componentID)
	if err != nil {
		return nil, err
	}

	// 未落库的编辑先提交，生成上下文里带的是用户看到的代码
	session, err := s.sessions.Acquire(userID, componentsync.PersistedRef(componentID), comp.CurrentCode)
	if err != nil {
		return nil, err
	}
	if err := session.Flush(ctx); err != nil {
		if errors.Is(err, componentsync.ErrBusy) {
			return nil, err
		}
		log.Warn().Err(err).Str("component_id", componentID).Msg("生成前的缓冲区提交失败")
	}

	comp, err = s.repo.FindByID(ctx, userID, componentID)
	if err != nil {
		return nil, err
	}

	history, err := s.repo.RecentMessages(ctx, componentID, s.historyWindow)
	if err != nil {
		return nil, err
	}

	if len(image) > 0 {
		s.storeReferenceImage(ctx, userID, componentID, image, imageMIME)
	} else if comp.ImageKey != "" {
		// 没有新图时沿用存储的参考图，直到被替换
		image, imageMIME = s.loadReferenceImage(ctx, comp)
	}

	version, code, err := s.runGeneration(ctx, userID, comp, history, req.Message, image, imageMIME)
	if err != nil {
		return nil, err
	}

	return &model.ChatResponse{Code: code, Version: version}, nil
}

// runGeneration 单飞保护下执行一轮生成并落库
func (s *StudioService) runGeneration(ctx context.Context, userID string, comp *model.Component, history []*model.ConversationMessage, userMessage string, image []byte, imageMIME string) (int, string, error) {
	ref := componentsync.PersistedRef(comp.ID)
	session, err := s.sessions.Acquire(userID, ref, comp.CurrentCode)
	if err != nil {
		return 0, "", err
	}
	if err := session.BeginGeneration(ctx); err != nil {
		return 0, "", err
	}

	genReq := ai.BuildGenerationRequest(comp, history, userMessage, image, imageMIME, s.historyWindow)
	result := s.ai.Generate(ctx, genReq)

	if result.Failed() {
		session.FinishGeneration("", false)
		if err := s.repo.AppendFailedTurn(ctx, userID, comp.ID, userMessage, result.FailureReason); err != nil {
			log.Error().Err(err).Str("component_id", comp.ID).Msg("失败轮次落库失败")
		}
		s.invalidate(ctx, userID, comp.ID)
		return 0, "", &GenerationError{Reason: result.FailureReason}
	}

	version, err := s.repo.AppendTurn(ctx, userID, comp.ID, comp.Version, userMessage, result.Code, summarize(userMessage))
	if err != nil {
		session.FinishGeneration("", false)
		return 0, "", err
	}

	session.FinishGeneration(result.Code, true)
	s.invalidate(ctx, userID, comp.ID)
	return version, result.Code, nil
}

// Get 查询组件详情（含对话），读路径走缓存
func (s *StudioService) Get(ctx context.Context, userID, componentID string) (*model.ComponentDetail, error) {
	key := cache.ComponentCacheKey(userID, componentID)
	if s.cache != nil {
		var detail model.ComponentDetail
		if err := s.cache.Get(ctx, key, &detail); err == nil {
			return &detail, nil
		}
	}

	detail, err := s.repo.FindWithConversation(ctx, userID, componentID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, detail, cache.ComponentCacheTTL); err != nil {
			log.Warn().Err(err).Str("component_id", componentID).Msg("组件快照写缓存失败")
		}
	}
	return detail, nil
}

// List 查询用户的组件列表
func (s *StudioService) List(ctx context.Context, userID string) ([]*model.ComponentSummary, error) {
	return s.repo.List(ctx, userID)
}

// Update 更新组件代码、样式令牌或名称，带乐观版本检查
func (s *StudioService) Update(ctx context.Context, userID, componentID string, req *model.UpdateComponentRequest) (*model.Component, error) {
	fields := repository.UpdateFields{
		Code:        req.CurrentCode,
		StyleTokens: req.StyleTokens,
		Name:        req.Name,
	}
	if err := s.repo.UpdateCode(ctx, userID, componentID, req.ExpectedVersion, fields); err != nil {
		return nil, err
	}

	// 直接更新绕过了会话缓冲区，把它作废避免陈旧内容回写
	if _, ok := s.sessions.Lookup(userID, componentsync.PersistedRef(componentID)); ok {
		if err := s.sessions.Release(ctx, userID, componentsync.PersistedRef(componentID), false); err != nil {
			log.Warn().Err(err).Str("component_id", componentID).Msg("释放编辑会话失败")
		}
	}

	s.invalidate(ctx, userID, componentID)
	return s.repo.FindByID(ctx, userID, componentID)
}

// UpdateBuffer 接收编辑器缓冲区内容，防抖后由会话提交
func (s *StudioService) UpdateBuffer(ctx context.Context, userID, componentID, content string) error {
	comp, err := s.repo.FindByID(ctx, userID, componentID)
	if err != nil {
		return err
	}

	session, err := s.sessions.Acquire(userID, componentsync.PersistedRef(componentID), comp.CurrentCode)
	if err != nil {
		return err
	}
	return session.Edit(ctx, content)
}

// Delete 删除组件及其对话和版本历史
func (s *StudioService) Delete(ctx context.Context, userID, componentID string) error {
	comp, err := s.repo.FindByID(ctx, userID, componentID)
	if err != nil {
		return err
	}

	ref := componentsync.PersistedRef(componentID)
	if err := s.sessions.Release(ctx, userID, ref, false); err != nil {
		log.Warn().Err(err).Str("component_id", componentID).Msg("释放编辑会话失败")
	}

	if err := s.repo.Delete(ctx, userID, componentID); err != nil {
		return err
	}

	if s.store != nil && comp.ImageKey != "" {
		if err := s.store.Delete(ctx, comp.ImageKey); err != nil {
			log.Warn().Err(err).Str("component_id", componentID).Msg("参考图删除失败")
		}
	}

	s.invalidate(ctx, userID, componentID)
	return nil
}

// ListVersions 查询组件的版本历史
func (s *StudioService) ListVersions(ctx context.Context, userID, componentID string) ([]*model.CodeVersion, error) {
	return s.repo.ListVersions(ctx, userID, componentID)
}

// Preview 装配组件的沙箱预览文档
// 有活跃会话时预览缓冲区内容，否则预览已落库的代码
func (s *StudioService) Preview(ctx context.Context, userID, componentID string) (string, error) {
	comp, err := s.repo.FindByID(ctx, userID, componentID)
	if err != nil {
		return "", err
	}

	code := comp.CurrentCode
	if session, ok := s.sessions.Lookup(userID, componentsync.PersistedRef(componentID)); ok {
		snap, err := session.Snapshot(ctx)
		if err == nil {
			code = snap.Content
		}
	}

	doc, err := s.renderer.Render(comp.Framework, code, comp.StyleTokens)
	if err != nil {
		// 装配失败对 iframe 也要可见：入口缺失返回错误面板文档而不是错误
		var renderErr *sandbox.RenderError
		if errors.As(err, &renderErr) {
			return s.renderer.RenderFailure(renderErr.Message), nil
		}
		return "", err
	}
	return doc, nil
}

// invalidate 任何已接受的写入都让组件快照缓存失效
func (s *StudioService) invalidate(ctx context.Context, userID, componentID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cache.ComponentCacheKey(userID, componentID)); err != nil {
		log.Warn().Err(err).Str("component_id", componentID).Msg("组件缓存失效失败")
	}
}

// storeReferenceImage 参考图落盘，失败只告警不阻断生成
func (s *StudioService) storeReferenceImage(ctx context.Context, userID, componentID string, image []byte, imageMIME string) {
	if s.store == nil {
		return
	}
	key := referenceImageKey(componentID, imageMIME)
	if _, err := s.store.Upload(ctx, key, bytes.NewReader(image), imageMIME); err != nil {
		log.Warn().Err(err).Str("component_id", componentID).Msg("参考图上传失败")
		return
	}
	if err := s.repo.SetImageKey(ctx, userID, componentID, key); err != nil {
		log.Warn().Err(err).Str("component_id", componentID).Msg("参考图 key 落库失败")
	}
}

// loadReferenceImage 读回存储的参考图，失败时退回无图生成
func (s *StudioService) loadReferenceImage(ctx context.Context, comp *model.Component) ([]byte, string) {
	if s.store == nil || comp.ImageKey == "" {
		return nil, ""
	}
	rc, err := s.store.Download(ctx, comp.ImageKey)
	if err != nil {
		log.Warn().Err(err).Str("component_id", comp.ID).Msg("参考图读取失败")
		return nil, ""
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxReferenceImageSize))
	if err != nil {
		log.Warn().Err(err).Str("component_id", comp.ID).Msg("参考图读取失败")
		return nil, ""
	}
	return data, mimeFromImageKey(comp.ImageKey)
}

const maxReferenceImageSize = 8 << 20

// 存储 key 带扩展名，回读时据此恢复 MIME
var imageExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/webp": "webp",
	"image/gif":  "gif",
	"image/png":  "png",
}

func referenceImageKey(componentID, imageMIME string) string {
	ext, ok := imageExtensions[imageMIME]
	if !ok {
		ext = "png"
	}
	return fmt.Sprintf("components/%s/reference.%s", componentID, ext)
}

func mimeFromImageKey(key string) string {
	for mime, ext := range imageExtensions {
		if strings.HasSuffix(key, "."+ext) {
			return mime
		}
	}
	return "image/png"
}

// summarize 用用户消息的开头作为版本摘要
func summarize(message string) string {
	message = strings.TrimSpace(message)
	if i := strings.IndexByte(message, '\n'); i >= 0 {
		message = message[:i]
	}
	runes := []rune(message)
	if len(runes) > 80 {
		return string(runes[:80]) + "…"
	}
	return message
}
