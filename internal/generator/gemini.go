package generator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"timewise/backend/config"
	"timewise/backend/internal/timetable"
	pkgerrors "timewise/backend/pkg/errors"
)

// contentGenerator 对应 *genai.GenerativeModel 的单次生成能力
type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Gemini 基于 Gemini 的课表生成实现
type Gemini struct {
	client  *genai.Client
	model   contentGenerator
	timeout time.Duration
	logger  *zap.Logger
}

// NewGemini 创建 Gemini 客户端；未配置 API Key 时返回 ErrNotConfigured
func NewGemini(ctx context.Context, cfg *config.AIConfig, logger *zap.Logger) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, pkgerrors.ErrNotConfigured
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("创建 Gemini 客户端失败: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.SetTemperature(cfg.Temperature)
	model.ResponseMIMEType = "application/json"
	model.SystemInstruction = genai.NewUserContent(genai.Text(systemInstruction))

	logger.Info("Gemini 生成服务已就绪", zap.String("model", cfg.Model))

	return &Gemini{client: client, model: model, timeout: cfg.Timeout, logger: logger}, nil
}

// Generate 调用模型生成周课表
func (g *Gemini) Generate(ctx context.Context, req Request) (*timetable.Schedule, error) {
	req, err := req.Normalize()
	if err != nil {
		return nil, err
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := g.model.GenerateContent(ctx, genai.Text(buildPrompt(req)))
	if err != nil {
		g.logger.Error("Gemini 调用失败", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	raw := responseText(resp)
	s, err := ParseSchedule(raw)
	if err == nil {
		err = req.Verify(s)
	}
	if err != nil {
		g.logger.Warn("Gemini 回复无法解析为课表",
			zap.Error(err),
			zap.Int("reply_len", len(raw)),
		)
		return nil, err
	}

	g.logger.Info("课表生成完成",
		zap.Int("slots", len(s.Slots)),
		zap.Int("cells", s.CellCount()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return s, nil
}

// Close 释放底层连接
func (g *Gemini) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return b.String()
}

const systemInstruction = `You are a university timetable planner. ` +
	`You reply with a single JSON object and nothing else.`

func buildPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("Create a conflict-free weekly timetable for Monday to Friday.\n")
	fmt.Fprintf(&b, "Subjects: %s\n", strings.Join(req.Subjects, ", "))
	fmt.Fprintf(&b, "Faculty: %s\n", strings.Join(req.Faculty, ", "))
	fmt.Fprintf(&b, "Time slots, in order: %s\n", strings.Join(req.TimeSlots, ", "))
	if req.BreakSlot != "" {
		fmt.Fprintf(&b, "The %s slot is a break on every day: use {\"subject\": \"Break\"} for it.\n", req.BreakSlot)
	}
	b.WriteString("A teacher must never teach two classes in the same slot on the same day.\n")
	b.WriteString("Fill every weekday of every slot. Add a room when you can.\n")
	if req.Constraints != "" {
		fmt.Fprintf(&b, "Additional constraints: %s\n", req.Constraints)
	}
	b.WriteString(`Reply format: {"slots":[{"time":"9:00 AM","days":{"Monday":{"subject":"...","teacher":"...","room":"..."}}}]}`)
	return b.String()
}
