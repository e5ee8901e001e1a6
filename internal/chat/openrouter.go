package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/codementorx/internal/config"
	"github.com/iliyamo/codementorx/internal/logging"
)

// Sampling parameters sent with every completion.
const (
	MaxTokens        = 2500
	Temperature      = 0.7
	TopP             = 0.9
	FrequencyPenalty = 0.1
	PresencePenalty  = 0.1
)

// OpenRouterClient calls POST {BaseURL}/chat/completions.
type OpenRouterClient struct {
	cfg        config.ChatConfig
	httpClient *http.Client
	logger     *zap.Logger
}

func NewOpenRouterClient(cfg config.ChatConfig, logger *zap.Logger) *OpenRouterClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &OpenRouterClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logging.OrNop(logger),
	}
}

func (c *OpenRouterClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

type completionRequest struct {
	Model            string    `json:"model"`
	Messages         []Message `json:"messages"`
	MaxTokens        int       `json:"max_tokens"`
	Temperature      float64   `json:"temperature"`
	TopP             float64   `json:"top_p"`
	FrequencyPenalty float64   `json:"frequency_penalty"`
	PresencePenalty  float64   `json:"presence_penalty"`
}

type completionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

func (c *OpenRouterClient) Complete(ctx context.Context, req Request) (string, error) {
	if c.cfg.APIKey == "" {
		return "", ErrNotConfigured
	}
	c.logger.Info("chat request", zap.Int("message_len", len(req.Message)), zap.Int("history", len(req.History)))

	body, err := json.Marshal(completionRequest{
		Model:            c.cfg.Model,
		Messages:         BuildMessages(req, c.cfg.HistoryLimit),
		MaxTokens:        MaxTokens,
		Temperature:      Temperature,
		TopP:             TopP,
		FrequencyPenalty: FrequencyPenalty,
		PresencePenalty:  PresencePenalty,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	if c.cfg.Referer != "" {
		httpReq.Header.Set("HTTP-Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		httpReq.Header.Set("X-Title", c.cfg.Title)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", c.transportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", c.transportError(err)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Error("chat upstream error", zap.Int("status", resp.StatusCode), zap.ByteString("body", respBody))
		return "", &UpstreamError{Status: resp.StatusCode, Body: string(respBody)}
	}

	var out completionResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", ErrNoChoices
	}
	reply := out.Choices[0].Message.Content
	c.logger.Info("chat response", zap.Int("response_len", len(reply)))
	return reply, nil
}

// transportError sorts a failed round trip into ErrTimeout or ErrNetwork.
func (c *OpenRouterClient) transportError(err error) error {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		c.logger.Error("chat request timeout", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	c.logger.Error("chat network error", zap.Error(err))
	return fmt.Errorf("%w: %v", ErrNetwork, err)
}
