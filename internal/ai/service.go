package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/tartarus_chat/internal/error_notificator"
	"github.com/Vovarama1992/tartarus_chat/internal/ports"
	openai "github.com/sashabaranov/go-openai"
)

// CompletionModel зашит в шлюз, клиент его не выбирает.
const CompletionModel = "ft:gpt-4o-mini-2024-07-18:personal:adversarial-grandpa:BXVBIS13"

// PublicErrorMessage — всё, что клиент узнаёт о сбое модели.
const PublicErrorMessage = "Failed to process your request"

const completionTimeout = 120 * time.Second

var (
	ErrUpstream          = errors.New("upstream completion failed")
	ErrInvalidTranscript = errors.New("invalid transcript")
)

type Service struct {
	client   CompletionClient
	tokens   TokenCounter
	notifier error_notificator.Notificator
	log      *logger.ZapLogger
}

// tokens может быть nil — тогда оценки в логах не будет
func NewService(
	client CompletionClient,
	tokens TokenCounter,
	notifier error_notificator.Notificator,
	log *logger.ZapLogger,
) *Service {
	return &Service{
		client:   client,
		tokens:   tokens,
		notifier: notifier,
		log:      log,
	}
}

// диагностика ошибок OpenAI для операторов
func analyzeOpenAIError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "Timed out waiting for OpenAI."
	}
	if errors.Is(err, errNoChoices) {
		return "OpenAI returned an empty choice list."
	}

	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) {
			return fmt.Sprintf("OpenAI request failed with status %d.", reqErr.HTTPStatusCode)
		}
		return "Unknown OpenAI error: " + err.Error()
	}

	switch apiErr.HTTPStatusCode {
	case 401:
		return "Invalid OpenAI API key."
	case 404:
		return "Model not found: " + CompletionModel
	case 429:
		return "OpenAI rate limit exceeded."
	case 400:
		return "OpenAI rejected the request."
	case 500, 502, 503:
		return "OpenAI internal error."
	}
	return fmt.Sprintf("OpenAI error %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
}

// Complete отправляет весь транскрипт и возвращает ровно одну реплику ассистента.
func (s *Service) Complete(ctx context.Context, messages []ports.Message) (ports.Message, error) {
	if err := ports.ValidateTranscript(messages); err != nil {
		return ports.Message{}, fmt.Errorf("%w: %w", ErrInvalidTranscript, err)
	}

	start := time.Now()

	weight := "n/a"
	if s.tokens != nil {
		weight = fmt.Sprintf("~%d", s.tokens.Count(messages))
	}

	s.log.Log(logger.LogEntry{
		Level:   "info",
		Message: fmt.Sprintf("[ai] >>> START messages=%d prompt_tokens=%s", len(messages), weight),
		Service: serviceName,
	})

	req := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		req = append(req, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	ctxGPT, cancel := context.WithTimeout(ctx, completionTimeout)
	defer cancel()

	reply, err := s.client.GetCompletion(ctxGPT, req, CompletionModel)
	if err != nil {
		_ = s.notifier.Notify(ctx, "ai", err, fmt.Sprintf(
			"Completion failed after %.1fs\nModel: %s\nMessages: %d\n\n%s",
			time.Since(start).Seconds(), CompletionModel, len(messages), analyzeOpenAIError(err),
		))
		return ports.Message{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	s.log.Log(logger.LogEntry{
		Level:   "info",
		Message: fmt.Sprintf("[ai][%.1fs] completion done, reply_chars=%d", time.Since(start).Seconds(), len(reply)),
		Service: serviceName,
	})

	return ports.Message{Role: ports.RoleAssistant, Content: reply}, nil
}

const serviceName = "tartarus_chat"
