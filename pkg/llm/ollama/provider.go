package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ai-buildguide-be/pkg/apperr"
	"ai-buildguide-be/pkg/llm"
)

const providerName = "ollama"

// OllamaProvider talks to a local Ollama server. Generate uses the
// single-prompt endpoint, Chat the message-history one.
type OllamaProvider struct {
	BaseURL   string
	ModelName string
	Client    *http.Client
}

var _ llm.LLMProvider = &OllamaProvider{}

func NewOllamaProvider(baseURL, modelName string, timeout time.Duration) *OllamaProvider {
	return &OllamaProvider{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		ModelName: modelName,
		Client:    &http.Client{Timeout: timeout},
	}
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  ollamaOptions   `json:"options"`
}

type chatResponse struct {
	Message ollamaMessage `json:"message"`
}

type generateRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type generateResponse struct {
	Response string `json:"response"`
}

func (o *OllamaProvider) resolve(opts []llm.Option) (string, ollamaOptions) {
	options := llm.Apply(llm.Options{Temperature: 0.7, Model: o.ModelName}, opts...)
	return options.Model, ollamaOptions{Temperature: options.Temperature, NumPredict: options.MaxTokens}
}

func (o *OllamaProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	model, options := o.resolve(opts)

	messages := make([]ollamaMessage, len(history))
	for i, msg := range history {
		role := msg.Role
		if role == "model" {
			role = "assistant"
		}
		messages[i] = ollamaMessage{Role: role, Content: msg.Content}
	}

	var out chatResponse
	if err := o.post(ctx, "/api/chat", chatRequest{Model: model, Messages: messages, Options: options}, &out); err != nil {
		return "", err
	}
	return nonEmpty(out.Message.Content)
}

func (o *OllamaProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	model, options := o.resolve(opts)

	var out generateResponse
	if err := o.post(ctx, "/api/generate", generateRequest{Model: model, Prompt: prompt, Options: options}, &out); err != nil {
		return "", err
	}
	return nonEmpty(out.Response)
}

func (o *OllamaProvider) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.Client.Do(req)
	if err != nil {
		return apperr.Unavailable(providerName, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.Unavailable(providerName, err)
	}
	if resp.StatusCode != http.StatusOK {
		return apperr.Unavailable(providerName, fmt.Errorf("%s: status %d: %s", path, resp.StatusCode, raw))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperr.Malformed(providerName, err)
	}
	return nil
}

func nonEmpty(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", apperr.Malformed(providerName, errors.New("empty response"))
	}
	return text, nil
}
