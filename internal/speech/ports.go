package speech

import (
	"context"

	"github.com/Vovarama1992/tartarus_chat/internal/ports"
)

// STTClient — голос → текст
type STTClient interface {
	Transcribe(ctx context.Context, audio ports.Audio) (string, error)
}

// TTSClient — текст → голос
type TTSClient interface {
	Synthesize(ctx context.Context, text string) (ports.Audio, error)
}
