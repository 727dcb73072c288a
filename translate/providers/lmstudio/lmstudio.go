// Package lmstudio talks to a local LM Studio server over its OpenAI
// compatible HTTP API.
package lmstudio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/alouette/alouette/backend"
	"github.com/alouette/alouette/translate/providers"
)

// Config carries the provider's tunables.
type Config struct {
	// URL is the server base URL including the /v1 prefix, e.g.
	// http://localhost:1234/v1.
	URL string

	// Timeout bounds a single request.
	Timeout time.Duration
}

// Client talks to one LM Studio server. It implements backend.Client.
type Client struct {
	baseURL string
	http    *http.Client

	mu       sync.Mutex
	disposed bool
}

// New constructs a Client for the given server.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Backend returns the provider's backend ID.
func (c *Client) Backend() backend.ID { return backend.IDLMStudio }

type modelsResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// ListOptions lists the server's loaded models via GET /models.
func (c *Client) ListOptions(ctx context.Context) ([]backend.Candidate, error) {
	if err := c.check(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.classifyTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.classifyStatus(resp)
	}

	var models modelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&models); err != nil {
		return nil, backend.NewError(backend.IDLMStudio, backend.KindUnknown,
			fmt.Errorf("decoding model list: %w", err))
	}

	candidates := make([]backend.Candidate, 0, len(models.Data))
	for _, m := range models.Data {
		candidates = append(candidates, backend.Candidate{
			Name:    m.ID,
			Quality: backend.QualityStandard,
		})
	}
	log.Debug("lmstudio: listed models", "count", len(candidates))
	return candidates, nil
}

type completionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Execute translates one request via POST /chat/completions.
func (c *Client) Execute(ctx context.Context, req backend.Request) (*backend.Result, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, backend.NewError(backend.IDLMStudio, backend.KindInvalidInput, backend.ErrEmptyText)
	}
	if req.Option == "" {
		return nil, backend.NewError(backend.IDLMStudio, backend.KindInvalidInput,
			errors.New("no model selected"))
	}

	body, err := json.Marshal(completionRequest{
		Model: req.Option,
		Messages: []chatMessage{
			{Role: "system", Content: providers.TranslationPrompt(req.SourceLanguage, req.Language)},
			{Role: "user", Content: req.Text},
		},
		Stream: false,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	log.Debug("lmstudio: translating", "model", req.Option, "textLen", len(req.Text))
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, c.classifyTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.classifyStatus(resp)
	}

	var completion completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return nil, backend.NewError(backend.IDLMStudio, backend.KindUnknown,
			fmt.Errorf("decoding completion: %w", err))
	}
	if len(completion.Choices) == 0 {
		return nil, backend.NewError(backend.IDLMStudio, backend.KindUnknown,
			errors.New("no completion choices returned"))
	}

	text := strings.TrimSpace(completion.Choices[0].Message.Content)
	if text == "" {
		return nil, backend.NewError(backend.IDLMStudio, backend.KindUnknown,
			errors.New("empty translation returned"))
	}
	return &backend.Result{Text: text}, nil
}

// Dispose closes idle connections. Safe to call more than once.
func (c *Client) Dispose() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return nil
	}
	c.disposed = true
	c.http.CloseIdleConnections()
	return nil
}

func (c *Client) check() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return backend.ErrClientDisposed
	}
	return nil
}

func (c *Client) classifyTransport(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return backend.NewError(backend.IDLMStudio, backend.KindTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return backend.NewError(backend.IDLMStudio, backend.KindUnavailable,
		fmt.Errorf("lmstudio unreachable: %w", err))
}

func (c *Client) classifyStatus(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	err := fmt.Errorf("lmstudio returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	return backend.NewError(backend.IDLMStudio, providers.KindForStatus(resp.StatusCode), err)
}
