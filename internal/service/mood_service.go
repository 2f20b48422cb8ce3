package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"ankahee-backend/internal/model"
	"ankahee-backend/internal/util"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	// MoodMinTextLength 少于这个字数不做建议
	MoodMinTextLength = 20
	moodTimeout       = 10 * time.Second
)

// TextGenerator 大模型文本生成
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeminiGenerator 基于 Gemini 的 TextGenerator
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

func NewGeminiGenerator(ctx context.Context, apiKey, modelName string) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, err
	}
	return &GeminiGenerator{client: client, model: modelName}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	config := &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}
	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
	if err != nil {
		return "", err
	}
	if result != nil && len(result.Candidates) > 0 && result.Candidates[0].Content != nil &&
		len(result.Candidates[0].Content.Parts) > 0 {
		return result.Candidates[0].Content.Parts[0].Text, nil
	}
	return "", fmt.Errorf("模型没有返回内容")
}

// MoodService 根据告白内容建议情绪标签，尽力而为
type MoodService struct {
	gen TextGenerator
}

func NewMoodService(gen TextGenerator) *MoodService {
	return &MoodService{gen: gen}
}

func moodPrompt(text string) string {
	tags := make([]string, len(model.MoodTags))
	for i, t := range model.MoodTags {
		tags[i] = "'" + string(t) + "'"
	}
	return fmt.Sprintf(`You are an assistant specialized in sentiment analysis for personal confessions.
Read the confession text and pick the single most relevant mood tag from these options:

Available Mood Tags: %s

Confession Text: %q

Reply with JSON only, in the form {"moodTag": "<tag>"}.`, strings.Join(tags, ", "), text)
}

// Suggest 文本太短、没有配置模型或模型出错时返回 nil，从不返回错误
func (s *MoodService) Suggest(ctx context.Context, text string) *model.MoodTag {
	text = strings.TrimSpace(text)
	if s.gen == nil || utf8.RuneCountInString(text) < MoodMinTextLength {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, moodTimeout)
	defer cancel()

	out, err := s.gen.Generate(ctx, moodPrompt(text))
	if err != nil {
		util.Logger.Warn("情绪建议失败", zap.Error(err))
		return nil
	}
	return parseMood(out)
}

// parseMood 优先解析 JSON，失败时在文本中查找标签名
func parseMood(out string) *model.MoodTag {
	out = strings.TrimSpace(out)
	out = strings.TrimPrefix(out, "```json")
	out = strings.TrimPrefix(out, "```")
	out = strings.TrimSuffix(out, "```")

	var resp struct {
		MoodTag string `json:"moodTag"`
	}
	if err := json.Unmarshal([]byte(out), &resp); err == nil && model.IsValidMood(resp.MoodTag) {
		tag := model.MoodTag(resp.MoodTag)
		return &tag
	}
	for _, tag := range model.MoodTags {
		if strings.Contains(out, string(tag)) {
			t := tag
			return &t
		}
	}
	return nil
}

// MoodServiceInterface 情绪建议接口
type MoodServiceInterface interface {
	Suggest(ctx context.Context, text string) *model.MoodTag
}

var _ MoodServiceInterface = (*MoodService)(nil)
