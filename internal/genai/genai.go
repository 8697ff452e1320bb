// Package genai wraps the OpenAI API behind the generation capability used by
// the agent: a single Invoke call that formats an instruction template and
// optionally validates structured workflow output.
package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/BranchCode/FlowPilot/internal/models"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Default generation parameters.
const (
	DefaultModel               = openai.ChatModelGPT4o
	DefaultTemperature         = 0.3
	DefaultMaxCompletionTokens = 1000
)

// ErrNoChoicesReturned indicates the model returned an empty choice list.
var ErrNoChoicesReturned = fmt.Errorf("no choices returned")

// codeFenceRe matches a ```json ... ``` block so structured replies wrapped in
// markdown fences can still be parsed.
var codeFenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// chatService defines the minimal interface for chat completions.
type chatService interface {
	Create(ctx context.Context, params openai.ChatCompletionNewParams) (openai.ChatCompletion, error)
}

// openaiChatService adapts the OpenAI SDK client to chatService.
type openaiChatService struct {
	client openai.Client
}

func (s *openaiChatService) Create(ctx context.Context, params openai.ChatCompletionNewParams) (openai.ChatCompletion, error) {
	resp, err := s.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return openai.ChatCompletion{}, err
	}
	return *resp, nil
}

// ClientInterface defines the generation capability consumed by the agent.
// It exists so the agent can be wired with test doubles.
type ClientInterface interface {
	// Invoke formats the instruction template by substituting {name}
	// placeholders from vars and sends it to the model. When structured is
	// true the reply must be valid JSON with non-empty "structure" and "data"
	// keys; the returned string is the re-serialized JSON.
	Invoke(ctx context.Context, template string, structured bool, vars map[string]string) (string, error)
}

// Opts holds configuration for the GenAI client.
type Opts struct {
	APIKey              string
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// Option configures the GenAI client.
type Option func(*Opts)

// WithAPIKey sets the OpenAI API key (overrides $OPENAI_API_KEY).
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithModel sets the chat model.
func WithModel(model string) Option {
	return func(o *Opts) { o.Model = model }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(temperature float64) Option {
	return func(o *Opts) { o.Temperature = temperature }
}

// WithMaxCompletionTokens caps the completion length.
func WithMaxCompletionTokens(n int64) Option {
	return func(o *Opts) { o.MaxCompletionTokens = n }
}

// Client wraps the OpenAI chat completion service.
type Client struct {
	chat                chatService
	model               string
	temperature         float64
	maxCompletionTokens int64
}

// NewClient initializes a new GenAI client. The API key comes from options or
// the OPENAI_API_KEY environment variable.
func NewClient(opts ...Option) (*Client, error) {
	cfg := Opts{
		Model:               DefaultModel,
		Temperature:         DefaultTemperature,
		MaxCompletionTokens: DefaultMaxCompletionTokens,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}
	cli := openai.NewClient(option.WithAPIKey(cfg.APIKey))
	slog.Debug("genai.NewClient: client initialized", "model", cfg.Model, "temperature", cfg.Temperature)
	return &Client{
		chat:                &openaiChatService{client: cli},
		model:               cfg.Model,
		temperature:         cfg.Temperature,
		maxCompletionTokens: cfg.MaxCompletionTokens,
	}, nil
}

// Invoke implements ClientInterface.
func (c *Client) Invoke(ctx context.Context, template string, structured bool, vars map[string]string) (string, error) {
	prompt := FormatTemplate(template, vars)
	slog.Debug("genai.Invoke: calling model", "structured", structured, "promptLength", len(prompt))

	params := openai.ChatCompletionNewParams{
		Model:               c.model,
		Messages:            []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
		Temperature:         openai.Float(c.temperature),
		MaxCompletionTokens: openai.Int(c.maxCompletionTokens),
	}
	resp, err := c.chat.Create(ctx, params)
	if err != nil {
		slog.Error("genai.Invoke: chat completion failed", "error", err)
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		slog.Error("genai.Invoke: model returned no choices")
		return "", ErrNoChoicesReturned
	}
	reply := strings.TrimSpace(resp.Choices[0].Message.Content)

	if structured {
		normalized, err := ValidateStructured(reply)
		if err != nil {
			slog.Warn("genai.Invoke: structured validation failed", "error", err)
			return "", err
		}
		slog.Info("genai.Invoke: structured response generated")
		return normalized, nil
	}
	slog.Info("genai.Invoke: plain text response generated", "length", len(reply))
	return reply, nil
}

// FormatTemplate substitutes {name} placeholders in the template from vars.
// Unknown placeholders are left untouched.
func FormatTemplate(template string, vars map[string]string) string {
	formatted := template
	for name, value := range vars {
		formatted = strings.ReplaceAll(formatted, "{"+name+"}", value)
	}
	return formatted
}

// ValidateStructured parses a structured reply, stripping any markdown code
// fence, and requires non-empty "structure" and "data" arrays. It returns a
// re-serialized JSON string on success.
func ValidateStructured(reply string) (string, error) {
	jsonStr := reply
	if m := codeFenceRe.FindStringSubmatch(reply); m != nil {
		jsonStr = m[1]
	}
	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
		return "", fmt.Errorf("invalid JSON in structured response: %w", err)
	}
	if !hasNonEmptyList(parsed, "structure") || !hasNonEmptyList(parsed, "data") {
		return "", models.ErrMissingRequiredKeys
	}
	normalized, err := json.Marshal(parsed)
	if err != nil {
		return "", fmt.Errorf("failed to re-serialize structured response: %w", err)
	}
	return string(normalized), nil
}

func hasNonEmptyList(parsed map[string]interface{}, key string) bool {
	list, ok := parsed[key].([]interface{})
	return ok && len(list) > 0
}
