package classifier

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/artifact-scout/internal/domain"
	"github.com/example/artifact-scout/internal/metrics"
)

const (
	anthropicVersion = "2023-06-01"
	maxErrorBody     = 4 << 10
)

// Config carries the credentials and limits for the vision model.
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// Client classifies one image per call.
type Client interface {
	Classify(ctx context.Context, image []byte, mimeType string) (*domain.ClassificationResult, error)
}

type imageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type contentBlock struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *imageSource `json:"source,omitempty"`
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// AnthropicClient calls the Messages API. It never retries.
type AnthropicClient struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

// NewAnthropicClient builds a client; zero limits get defaults.
func NewAnthropicClient(cfg Config, logger *zap.Logger) *AnthropicClient {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &AnthropicClient{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger.Named("classifier"),
	}
}

// Classify sends the image with the fixed instructions and parses the reply.
func (c *AnthropicClient) Classify(ctx context.Context, image []byte, mimeType string) (*domain.ClassificationResult, error) {
	start := time.Now()
	defer func() {
		metrics.ClassifierDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	payload, err := json.Marshal(messagesRequest{
		Model:     c.cfg.Model,
		MaxTokens: c.cfg.MaxTokens,
		Messages: []message{{
			Role: "user",
			Content: []contentBlock{
				{
					Type: "image",
					Source: &imageSource{
						Type:      "base64",
						MediaType: mimeType,
						Data:      base64.StdEncoding.EncodeToString(image),
					},
				},
				{Type: "text", Text: Instructions()},
			},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.cfg.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Warn("vision model returned error status",
			zap.Int("status", resp.StatusCode),
			zap.Duration("elapsed", time.Since(start)))
		return nil, fmt.Errorf("vision model request failed: %d %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	text := ""
	for _, block := range decoded.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	if text == "" {
		return nil, ErrEmptyReply
	}

	result, err := ParseReply(text)
	if err != nil {
		c.logger.Warn("unparsable vision model reply", zap.Error(err), zap.Int("reply_bytes", len(text)))
		return nil, err
	}
	c.logger.Debug("image classified",
		zap.Bool("underwater", result.IsUnderwater),
		zap.Bool("man_made", result.HasManMadeObject),
		zap.Duration("elapsed", time.Since(start)))
	return result, nil
}
