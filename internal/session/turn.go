package session

import (
	"time"

	"github.com/Vovarama1992/tartarus_chat/internal/ports"
	"github.com/rs/xid"
)

// DefaultPersona — системный промпт, с которого начинается любая сессия
const DefaultPersona = "You are an adversarial grandfather, responding with condescension, skepticism, and mild disappointment at the new generation."

// FallbackReply подставляется вместо ответа, если модель не ответила
const FallbackReply = "Sorry, I encountered an error. Please try again."

const systemTurnID = "system-prompt"

// Turn — одна реплика. После добавления в транскрипт не меняется.
type Turn struct {
	ID        string     `json:"id"`
	Role      ports.Role `json:"role"`
	Content   string     `json:"content"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

func (t Turn) Message() ports.Message {
	return ports.Message{Role: t.Role, Content: t.Content}
}

func newTurnID(prefix string) string {
	return prefix + "-" + xid.New().String()
}

// ToMessages срезает всё, кроме role + content
func ToMessages(turns []Turn) []ports.Message {
	out := make([]ports.Message, 0, len(turns))
	for _, t := range turns {
		out = append(out, t.Message())
	}
	return out
}
