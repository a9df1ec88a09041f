package ai

import (
	"context"

	"github.com/Vovarama1992/tartarus_chat/internal/ports"
	openai "github.com/sashabaranov/go-openai"
)

// CompletionClient — низкоуровневый клиент к хостовой модели
type CompletionClient interface {
	GetCompletion(ctx context.Context, messages []openai.ChatCompletionMessage, model string) (string, error)
}

// TokenCounter — оценка веса транскрипта в токенах, только для логов
type TokenCounter interface {
	Count(messages []ports.Message) int
}
