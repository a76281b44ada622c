package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// chatGenerator is the slice of eino's chat model that translation needs.
type chatGenerator interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// LLMTranslator asks a chat model to translate. Works with OpenAI,
// OpenRouter or any other OpenAI-compatible base URL.
type LLMTranslator struct {
	chat      chatGenerator
	modelName string
}

// NewLLM creates an LLM-backed translator. Without an API key the
// translator is returned but every call fails with ErrNotConfigured.
func NewLLM(ctx context.Context, apiKey, baseURL, modelName string) (*LLMTranslator, error) {
	t := &LLMTranslator{modelName: modelName}
	if apiKey == "" {
		return t, nil
	}

	cfg := &openai.ChatModelConfig{
		Model:  modelName,
		APIKey: apiKey,
	}
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	chatModel, err := openai.NewChatModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	t.chat = chatModel
	return t, nil
}

// Name identifies the backend in job records.
func (t *LLMTranslator) Name() string { return "llm" }

// Translate sends text as the user message under a translation system prompt.
func (t *LLMTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	if t.chat == nil {
		return "", ErrNotConfigured
	}

	resp, err := t.chat.Generate(ctx, []*schema.Message{
		schema.SystemMessage(systemPrompt(source, target)),
		schema.UserMessage(text),
	})
	if err != nil {
		return "", fmt.Errorf("%s request failed: %w", t.modelName, err)
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return "", fmt.Errorf("%s returned an empty translation", t.modelName)
	}
	return resp.Content, nil
}

func systemPrompt(source, target string) string {
	from := LanguageName(source)
	return fmt.Sprintf(
		"You are a professional document translator. Translate the user's text from %s to %s. "+
			"Keep line breaks and paragraph breaks exactly where they are. "+
			"Reply with the translated text only, no notes or explanations.",
		from, LanguageName(target))
}
