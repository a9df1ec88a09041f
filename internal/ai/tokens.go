package ai

import (
	"fmt"

	"github.com/Vovarama1992/tartarus_chat/internal/ports"
	tiktoken "github.com/pkoukk/tiktoken-go"
)

// у fine-tune на gpt-4o-mini тот же словарь, что у базовой модели
const encodingName = "o200k_base"

type TiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

func NewTiktokenCounter() (*TiktokenCounter, error) {
	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("tokenizer init: %w", err)
	}
	return &TiktokenCounter{enc: enc}, nil
}

// Count — та же арифметика, что в cookbook OpenAI: 3 служебных на сообщение + 3 на ответ.
func (c *TiktokenCounter) Count(messages []ports.Message) int {
	total := 3
	for _, m := range messages {
		total += 3
		total += len(c.enc.Encode(string(m.Role), nil, nil))
		total += len(c.enc.Encode(m.Content, nil, nil))
	}
	return total
}
