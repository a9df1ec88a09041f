package ports

import "fmt"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// DTO одного сообщения, как его видит модель: только role + content
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ValidateTranscript — системное сообщение обязано идти первым, роли только из трёх.
func ValidateTranscript(messages []Message) error {
	if len(messages) == 0 {
		return fmt.Errorf("messages are required")
	}
	if messages[0].Role != RoleSystem {
		return fmt.Errorf("first message must have role %q", RoleSystem)
	}
	for i, m := range messages {
		if !m.Role.Valid() {
			return fmt.Errorf("message %d: unknown role %q", i, m.Role)
		}
	}
	return nil
}
