package ai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	"atelier/internal/ai/component"
	"atelier/internal/config"
	"atelier/internal/model"
)

// chatModel 生成所需的最小模型能力（便于测试替换）
type chatModel interface {
	Generate(ctx context.Context, in []*schema.Message, opts ...einomodel.Option) (*schema.Message, error)
}

// Client 生成客户端
// 职责：每个请求恰好调用一次补全能力，并从响应中提取代码产物。
// 无状态、无副作用；持久化是调用方在成功之后的事
type Client struct {
	cfg   *config.AIConfig
	model chatModel
}

// NewClient 创建生成客户端
func NewClient(ctx context.Context, cfg *config.AIConfig) (*Client, error) {
	if cfg.APIKey == "" {
		log.Warn().Msg("AI API key not configured, generation calls will fail")
	}

	cm, err := component.NewChatModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	return &Client{cfg: cfg, model: cm}, nil
}

// NewClientWithModel 用既有模型创建客户端（测试用）
func NewClientWithModel(cfg *config.AIConfig, cm chatModel) *Client {
	return &Client{cfg: cfg, model: cm}
}

// Generate 执行一次生成
// 失败（不可达、超时、响应不可用）都收敛为带原因的失败结果，不会向外传播异常
func (c *Client) Generate(ctx context.Context, req *GenerationRequest) *GenerationResult {
	timeout := c.timeout(req)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := c.model.Generate(ctx, c.buildMessages(req))
	if err != nil {
		reason := "generation failed: " + err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			reason = fmt.Sprintf("generation timed out after %s", timeout)
		}
		log.Warn().Err(err).Str("framework", string(req.Framework)).Msg("generation call failed")
		return &GenerationResult{FailureReason: reason}
	}

	code := ExtractArtifact(resp.Content)
	if code == "" {
		return &GenerationResult{FailureReason: "generation returned no usable code"}
	}

	return &GenerationResult{Code: code}
}

// timeout 纯文本与含图请求使用不同的超时
func (c *Client) timeout(req *GenerationRequest) time.Duration {
	if len(req.Image) > 0 && c.cfg.ImageTimeout > 0 {
		return c.cfg.ImageTimeout
	}
	if c.cfg.RequestTimeout > 0 {
		return c.cfg.RequestTimeout
	}
	return 45 * time.Second
}

// buildMessages 将生成请求转换为模型消息序列
func (c *Client) buildMessages(req *GenerationRequest) []*schema.Message {
	messages := make([]*schema.Message, 0, len(req.History)+2)
	messages = append(messages, schema.SystemMessage(req.systemPrompt()))

	for _, turn := range req.History {
		switch turn.Role {
		case model.RoleAssistant:
			messages = append(messages, schema.AssistantMessage(turn.Content, nil))
		default:
			messages = append(messages, schema.UserMessage(turn.Content))
		}
	}

	if len(req.Image) > 0 {
		mime := req.ImageMIME
		if mime == "" {
			mime = "image/png"
		}
		dataURL := fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(req.Image))
		messages = append(messages, &schema.Message{
			Role: schema.User,
			MultiContent: []schema.ChatMessagePart{
				{
					Type:     schema.ChatMessagePartTypeImageURL,
					ImageURL: &schema.ChatMessageImageURL{URL: dataURL},
				},
				{
					Type: schema.ChatMessagePartTypeText,
					Text: req.UserMessage,
				},
			},
		})
	} else {
		messages = append(messages, schema.UserMessage(req.UserMessage))
	}

	return messages
}
