/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package quotesource asks a chat-completions API for a short quote and splits the reply.
package quotesource

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"quotecard/internal/domain"
	applog "quotecard/internal/log"
)

// Client produces one raw "<quote> - <author>" string per call.
type Client interface {
	RequestQuote(ctx context.Context) (string, error)
}

// Prompt wording sent with every request.
const (
	SystemPrompt = "You are a quote generator."
	UserPrompt   = "Generate an inspiring quote (max 50 characters) and its author:"
)

// Options configures an OpenAI client. Zero values fall back to the defaults below.
type Options struct {
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-3.5-turbo"
)

// OpenAI asks the chat completions endpoint for one quote per call.
type OpenAI struct {
	opt    Options
	apiKey string
	client *openai.Client
}

// NewOpenAI creates a client. An empty apiKey is accepted here and reported on the first request.
func NewOpenAI(apiKey string, opt Options) *OpenAI {
	if opt.BaseURL == "" {
		opt.BaseURL = DefaultBaseURL
	}
	opt.BaseURL = strings.TrimRight(opt.BaseURL, "/")
	if opt.Model == "" {
		opt.Model = DefaultModel
	}
	if opt.MaxTokens <= 0 {
		opt.MaxTokens = 50
	}
	if opt.Temperature <= 0 {
		opt.Temperature = 0.7
	}
	if opt.Timeout <= 0 {
		opt.Timeout = 30 * time.Second
	}
	apiKey = strings.TrimSpace(apiKey)
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = opt.BaseURL
	cfg.HTTPClient = &http.Client{Timeout: opt.Timeout}
	return &OpenAI{opt: opt, apiKey: apiKey, client: openai.NewClientWithConfig(cfg)}
}

// RequestQuote performs one completion call. It never retries.
func (c *OpenAI) RequestQuote(ctx context.Context) (string, error) {
	if c.apiKey == "" {
		return "", &domain.ConfigError{Key: "api_key", Err: domain.ErrMissingAPIKey}
	}
	l := applog.WithOperation(applog.WithComponent("quotesource"), "request").With(slog.String("model", c.opt.Model))

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.opt.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: UserPrompt},
		},
		MaxTokens:   c.opt.MaxTokens,
		Temperature: float32(c.opt.Temperature),
	})
	if err != nil {
		op := failedOp(err)
		l.Warn("request failed", slog.String("op", op), applog.Err(err))
		return "", &domain.UpstreamError{Op: op, Err: err}
	}
	l.Debug("response", slog.Int("choices", len(resp.Choices)), slog.Duration("took", time.Since(start)))
	if len(resp.Choices) == 0 {
		return "", &domain.UpstreamError{Op: "decode response", Err: errors.New("no choices in response")}
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// failedOp tells a body the client could not decode apart from a failed call.
// Error statuses always count as failed calls, whatever their body.
func failedOp(err error) string {
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	if errors.As(err, &apiErr) || errors.As(err, &reqErr) {
		return "request"
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return "decode response"
	}
	return "request"
}
