package enrich

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"uplink/internal/config"
	"uplink/internal/logging"
	"uplink/internal/services"
)

// Placeholder is recorded as an asset's analysis when enrichment is disabled
// or fails. Enrichment is best-effort; a placeholder never fails a pipeline
// step.
const Placeholder = "analysis unavailable"

const systemPrompt = "You are a world class image analyzer."

// Service provides best-effort visual analysis of materialized assets.
type Service interface {
	// Describe returns a narration of the image at fileRef, steered by the
	// asset's own description text.
	Describe(ctx context.Context, fileRef, contextText string) (string, error)
	// Ask answers a free-form question about the image at fileRef.
	Ask(ctx context.Context, fileRef, question string) (string, error)
}

// NewService builds an enrichment service backed by an OpenAI-compatible
// vision endpoint when configured. With no endpoint or key, a noop
// implementation is returned and every asset receives the placeholder.
func NewService(cfg *config.Config, logger *slog.Logger) Service {
	baseURL := strings.TrimSpace(cfg.Enrichment.BaseURL)
	apiKey := strings.TrimSpace(cfg.Enrichment.APIKey)
	if baseURL == "" && apiKey == "" {
		return noopService{}
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}

	timeout := time.Duration(cfg.Enrichment.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &visionService{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   strings.TrimSpace(cfg.Enrichment.Model),
		timeout: timeout,
		logger:  logging.NewComponentLogger(logger, "enrich"),
	}
}

type visionService struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

func (s *visionService) Describe(ctx context.Context, fileRef, contextText string) (string, error) {
	prompt := "Describe the image."
	if contextText = strings.TrimSpace(contextText); contextText != "" {
		prompt = fmt.Sprintf("Describe the image. Context: %s", contextText)
	}
	return s.query(ctx, fileRef, prompt)
}

func (s *visionService) Ask(ctx context.Context, fileRef, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		question = "What is shown in this image?"
	}
	return s.query(ctx, fileRef, question)
}

func (s *visionService) query(ctx context.Context, fileRef, prompt string) (string, error) {
	imageURL, err := encodeImage(fileRef)
	if err != nil {
		return "", services.Wrap(services.ErrEnrichment, "enrich", "read image", fileRef, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	s.logger.Debug("querying vision model", logging.String("file", fileRef))
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     s.model,
		MaxTokens: 512,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: prompt},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: imageURL},
					},
				},
			},
		},
	})
	if err != nil {
		return "", services.Wrap(services.ErrEnrichment, "enrich", "chat completion", s.model, err)
	}
	if len(resp.Choices) == 0 {
		return "", services.Wrap(services.ErrEnrichment, "enrich", "chat completion", "no choices returned", nil)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func encodeImage(fileRef string) (string, error) {
	raw, err := os.ReadFile(fileRef)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw), nil
}

type noopService struct{}

func (noopService) Describe(context.Context, string, string) (string, error) {
	return Placeholder, nil
}

func (noopService) Ask(context.Context, string, string) (string, error) {
	return Placeholder, nil
}
