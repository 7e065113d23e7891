package genai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	go_openai "github.com/sashabaranov/go-openai"
	"golang.org/x/sync/semaphore"
)

// OpenAIClient calls the OpenAI backend. In-flight generation calls are
// bounded by a global semaphore so one flood of requests cannot overload
// the upstream provider, and each call carries a timeout.
type OpenAIClient struct {
	api     *go_openai.Client
	catalog *Catalog
	timeout time.Duration
	sem     *semaphore.Weighted

	// pending is the last composed query payload. It is cleared before
	// every call returns, success or failure, so no state leaks between
	// calls.
	mu      sync.Mutex
	pending string
}

// NewOpenAIClient creates a client with the given per-call timeout and
// in-flight cap.
func NewOpenAIClient(apiKey string, catalog *Catalog, timeout time.Duration, maxInFlight int64) *OpenAIClient {
	if maxInFlight <= 0 {
		maxInFlight = 1
	}
	return &OpenAIClient{
		api:     go_openai.NewClient(apiKey),
		catalog: catalog,
		timeout: timeout,
		sem:     semaphore.NewWeighted(maxInFlight),
	}
}

// GenerateText sends payload as a single user message to the given model
// and returns the completion text, or a RateLimitedError/ProviderError.
func (c *OpenAIClient) GenerateText(ctx context.Context, model, payload string) (string, error) {
	c.setPending(payload)
	defer c.clearPending()

	if err := c.sem.Acquire(ctx, 1); err != nil {
		return "", &ProviderError{Message: err.Error()}
	}
	defer c.sem.Release(1)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, go_openai.ChatCompletionRequest{
		Model: model,
		Messages: []go_openai.ChatCompletionMessage{
			{Role: go_openai.ChatMessageRoleUser, Content: payload},
		},
	})
	if err != nil {
		return "", translateError(err)
	}
	if len(resp.Choices) == 0 {
		return "", &ProviderError{Message: "empty model response"}
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// GenerateImage generates one image for promptText and returns its URL.
func (c *OpenAIClient) GenerateImage(ctx context.Context, promptText string) (string, error) {
	c.setPending(promptText)
	defer c.clearPending()

	if err := c.sem.Acquire(ctx, 1); err != nil {
		return "", &ProviderError{Message: err.Error()}
	}
	defer c.sem.Release(1)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateImage(ctx, go_openai.ImageRequest{
		Prompt:         promptText,
		N:              1,
		Size:           go_openai.CreateImageSize512x512,
		ResponseFormat: go_openai.CreateImageResponseFormatURL,
	})
	if err != nil {
		return "", translateError(err)
	}
	if len(resp.Data) == 0 {
		return "", &ProviderError{Message: "empty image response"}
	}
	return resp.Data[0].URL, nil
}

// AvailableModels lists provider-advertised models intersected with the
// allow-list.
func (c *OpenAIClient) AvailableModels(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	list, err := c.api.ListModels(ctx)
	if err != nil {
		return nil, translateError(err)
	}
	advertised := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		advertised = append(advertised, m.ID)
	}
	log.Debug().Int("advertised", len(advertised)).Msg("listed provider models")
	return c.catalog.Intersect(advertised), nil
}

func (c *OpenAIClient) setPending(payload string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = payload
}

func (c *OpenAIClient) clearPending() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = ""
}

// translateError maps backend failures onto the reply-value taxonomy.
// Timeouts take the rate-limit path so the user sees a retryable message.
func translateError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &RateLimitedError{Message: "the model took too long to answer, please try again"}
	}
	var apiErr *go_openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return &RateLimitedError{Message: apiErr.Message}
		}
		return &ProviderError{Message: apiErr.Message}
	}
	return &ProviderError{Message: err.Error()}
}
