package session

import (
	"context"

	"github.com/Vovarama1992/tartarus_chat/internal/ports"
)

// Completer — шлюз модели: весь транскрипт на вход, одна реплика на выход
type Completer interface {
	Complete(ctx context.Context, messages []ports.Message) (ports.Message, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, audio ports.Audio) (string, error)
}

type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (ports.Audio, error)
}

// Recorder — устройство захвата. Stop дописывает буфер, освобождает устройство
// и отдаёт записанное.
type Recorder interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) (ports.Audio, error)
}

// Player проигрывает аудио один раз
type Player interface {
	Play(ctx context.Context, audio ports.Audio) error
}

// Alerter — блокирующее уведомление пользователя (alert в браузере)
type Alerter interface {
	Alert(ctx context.Context, message string)
}
