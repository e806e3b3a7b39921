package gemini

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"google.golang.org/genai"

	"github.com/sljesus/winm/analyzer"
)

const DefaultModel = "gemini-2.5-flash"

type config struct {
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
}

func loadConfig() config {
	cfg := config{
		APIKey:      viper.GetString("gemini.api_key"),
		Model:       viper.GetString("gemini.model"),
		Temperature: viper.GetFloat64("gemini.temperature"),
		MaxTokens:   viper.GetInt("gemini.max_tokens"),
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GOOGLE_API_KEY")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	return cfg
}

// Client wraps the Gemini SDK behind the analyzer.TextGenerator interface.
type Client struct {
	client *genai.Client
	cfg    config
	retry  analyzer.RetryConfig
}

// HasCredential reports whether an API key is available. Commands check
// it before constructing a client so a missing key degrades the chain to
// its regex side instead of failing at startup.
func HasCredential() bool {
	return viper.GetString("gemini.api_key") != "" ||
		os.Getenv("GEMINI_API_KEY") != "" ||
		os.Getenv("GOOGLE_API_KEY") != ""
}

func New(ctx context.Context) (*Client, error) {
	cfg := loadConfig()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Client{client: client, cfg: cfg, retry: analyzer.DefaultRetryConfig}, nil
}

// GenerateText sends one prompt to the model and returns its raw text.
// Transient API failures are retried with backoff.
func (c *Client) GenerateText(ctx context.Context, prompt analyzer.Prompt) (string, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt.User}},
		},
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: prompt.System}},
		},
		Temperature:     genai.Ptr(float32(c.cfg.Temperature)),
		MaxOutputTokens: int32(c.cfg.MaxTokens),
	}

	return analyzer.WithRetry(ctx, c.retry, func(ctx context.Context) (string, error) {
		resp, err := c.client.Models.GenerateContent(ctx, c.cfg.Model, contents, config)
		if err != nil {
			return "", fmt.Errorf("generate content: %w", err)
		}

		text := strings.TrimSpace(resp.Text())
		if text == "" {
			return "", fmt.Errorf("empty response from model %s", c.cfg.Model)
		}
		return text, nil
	})
}
