// Package ollama talks to a local Ollama server over its native HTTP API.
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
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/alouette/alouette/backend"
	"github.com/alouette/alouette/translate/providers"
)

// Config carries the provider's tunables.
type Config struct {
	// URL is the server base URL, e.g. http://localhost:11434.
	URL string

	// Timeout bounds a single request. Chat completions on small hardware
	// can take a while, so this defaults generously.
	Timeout time.Duration
}

// Client talks to one Ollama server. It implements backend.Client.
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
func (c *Client) Backend() backend.ID { return backend.IDOllama }

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// ListOptions lists the server's pulled models via GET /api/tags.
func (c *Client) ListOptions(ctx context.Context) ([]backend.Candidate, error) {
	if err := c.check(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
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

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, backend.NewError(backend.IDOllama, backend.KindUnknown,
			fmt.Errorf("decoding model list: %w", err))
	}

	candidates := make([]backend.Candidate, 0, len(tags.Models))
	for _, m := range tags.Models {
		candidates = append(candidates, backend.Candidate{
			Name:    m.Name,
			Quality: backend.QualityStandard,
		})
	}
	log.Debug("ollama: listed models", "count", len(candidates))
	return candidates, nil
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Error   string      `json:"error"`
}

// Execute translates one request via POST /api/chat.
func (c *Client) Execute(ctx context.Context, req backend.Request) (*backend.Result, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, backend.NewError(backend.IDOllama, backend.KindInvalidInput, backend.ErrEmptyText)
	}
	if req.Option == "" {
		return nil, backend.NewError(backend.IDOllama, backend.KindInvalidInput,
			errors.New("no model selected"))
	}

	body, err := json.Marshal(chatRequest{
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

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	log.Debug("ollama: translating", "model", req.Option, "textLen", len(req.Text))
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, c.classifyTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.classifyStatus(resp)
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return nil, backend.NewError(backend.IDOllama, backend.KindUnknown,
			fmt.Errorf("decoding chat response: %w", err))
	}
	if chat.Error != "" {
		return nil, backend.NewError(backend.IDOllama, backend.KindUnknown,
			fmt.Errorf("server error: %s", chat.Error))
	}

	text := strings.TrimSpace(chat.Message.Content)
	if text == "" {
		return nil, backend.NewError(backend.IDOllama, backend.KindUnknown,
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
		return backend.NewError(backend.IDOllama, backend.KindTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return backend.NewError(backend.IDOllama, backend.KindUnavailable,
		fmt.Errorf("ollama unreachable: %w", err))
}

func (c *Client) classifyStatus(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	err := fmt.Errorf("ollama returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	return backend.NewError(backend.IDOllama, providers.KindForStatus(resp.StatusCode), err)
}
