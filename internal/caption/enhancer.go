package caption

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"gramline/internal/config"
	"gramline/internal/logging"
)

const enhanceSystemPrompt = "You are a social media expert who creates engaging Instagram captions. " +
	"Enhance the given text to make it more engaging while keeping the original message. " +
	"Respond with the caption text only."

// Enhancer rewrites a caption through an external text-generation call.
type Enhancer interface {
	Enhance(ctx context.Context, text string) (string, error)
}

// OpenAIEnhancer implements Enhancer using the OpenAI chat completions API.
// Any OpenAI-compatible endpoint works via the base URL override.
type OpenAIEnhancer struct {
	model   string
	timeout time.Duration
	opts    []option.RequestOption
}

// NewOpenAIEnhancer builds an enhancer from configuration. Returns nil when
// enhancement is disabled so callers can pass the result straight to
// EnhanceOrFallback.
func NewOpenAIEnhancer(cfg config.Enhancement) (*OpenAIEnhancer, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("enhancement api key missing")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("enhancement model missing")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &OpenAIEnhancer{model: cfg.Model, timeout: timeout, opts: opts}, nil
}

// Enhance sends the caption to the model and returns the rewritten text.
func (e *OpenAIEnhancer) Enhance(ctx context.Context, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	client := openai.NewClient(e.opts...)
	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(e.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(enhanceSystemPrompt),
			openai.UserMessage(text),
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("enhance: empty choices")
	}
	enhanced := strings.TrimSpace(resp.Choices[0].Message.Content)
	if enhanced == "" {
		return "", errors.New("enhance: empty completion")
	}
	return enhanced, nil
}

// EnhanceOrFallback attempts enhancement and returns the original text on any
// failure, logging a warning. A nil enhancer (enhancement disabled) is a
// silent pass-through. Enhancement can never block the publish pipeline.
func EnhanceOrFallback(ctx context.Context, logger *slog.Logger, enhancer Enhancer, text string) string {
	if enhancer == nil {
		return text
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	enhanced, err := enhancer.Enhance(ctx, text)
	if err != nil {
		logger.Warn("caption enhancement failed; posting raw caption",
			logging.String(logging.FieldEventType, "enhance_fallback"),
			logging.Error(err),
		)
		return text
	}
	return enhanced
}
