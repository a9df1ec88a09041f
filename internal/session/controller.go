package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/tartarus_chat/internal/ports"
	"go.uber.org/zap"
)

var (
	ErrEmptyInput         = errors.New("input is empty")
	ErrBusy               = errors.New("a request is already in flight")
	ErrAlreadyRecording   = errors.New("capture already in progress")
	ErrNotRecording       = errors.New("capture is not running")
	ErrCaptureUnavailable = errors.New("no capture device")
	ErrNoTranscriber      = errors.New("speech recognition is not configured")
)

const (
	transcribeFailedMsg = "Failed to transcribe audio"
	speechFailedMsg     = "Failed to generate speech"
)

type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhasePending      Phase = "pending"
	PhaseRecording    Phase = "recording"
	PhaseTranscribing Phase = "transcribing"
)

// State — снимок сессии для отрисовки
type State struct {
	Transcript   []Turn `json:"transcript"`
	Pending      bool   `json:"pending"`
	Recording    bool   `json:"recording"`
	Transcribing bool   `json:"transcribing"`
	Input        string `json:"input"`
	Phase        Phase  `json:"phase"`
}

type Deps struct {
	Completer   Completer
	Transcriber Transcriber
	Synthesizer Synthesizer
	Recorder    Recorder
	Player      Player
	Alerter     Alerter
	Log         *logger.ZapLogger

	// OnChange получает снимок после каждой мутации, вызывается без блокировки
	OnChange func(State)
}

// Controller владеет транскриптом, флагом ожидания и жизненным циклом захвата.
// Одна сессия на одну страницу, живёт только в памяти.
type Controller struct {
	deps Deps
	now  func() time.Time

	mu           sync.Mutex
	transcript   []Turn
	pending      bool
	recording    bool
	transcribing bool
	input        string
}

func New(persona string, deps Deps) *Controller {
	if strings.TrimSpace(persona) == "" {
		persona = DefaultPersona
	}
	if deps.Log == nil {
		deps.Log = logger.NewZapLogger(zap.NewNop().Sugar())
	}

	return &Controller{
		deps: deps,
		now:  time.Now,
		transcript: []Turn{{
			ID:      systemTurnID,
			Role:    ports.RoleSystem,
			Content: persona,
		}},
	}
}

// SubmitText добавляет реплику пользователя и ответ модели. Сбой модели
// превращается в реплику-заглушку, наружу не выходит.
func (c *Controller) SubmitText(ctx context.Context, text string) (Turn, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Turn{}, ErrEmptyInput
	}

	c.mu.Lock()
	if c.pending || c.transcribing {
		c.mu.Unlock()
		return Turn{}, ErrBusy
	}
	now := c.now()
	c.transcript = append(c.transcript, Turn{
		ID:        newTurnID("user"),
		Role:      ports.RoleUser,
		Content:   text,
		Timestamp: &now,
	})
	c.input = ""
	c.pending = true
	messages := ToMessages(c.transcript)
	c.mu.Unlock()
	c.changed()

	defer func() {
		c.mu.Lock()
		c.pending = false
		c.mu.Unlock()
		c.changed()
	}()

	reply := c.complete(ctx, messages)

	c.mu.Lock()
	c.transcript = append(c.transcript, reply)
	c.mu.Unlock()

	return reply, nil
}

func (c *Controller) complete(ctx context.Context, messages []ports.Message) Turn {
	msg, err := c.deps.Completer.Complete(ctx, messages)
	now := c.now()
	if err != nil {
		c.logError("[session] completion failed, rendering fallback", err)
		return Turn{
			ID:        newTurnID("error"),
			Role:      ports.RoleAssistant,
			Content:   FallbackReply,
			Timestamp: &now,
		}
	}

	return Turn{
		ID:        newTurnID("assistant"),
		Role:      ports.RoleAssistant,
		Content:   msg.Content,
		Timestamp: &now,
	}
}

func (c *Controller) BeginCapture(ctx context.Context) error {
	if c.deps.Recorder == nil {
		return ErrCaptureUnavailable
	}
	// без распознавания запись некуда отдать, не открываем устройство зря
	if c.deps.Transcriber == nil {
		return ErrNoTranscriber
	}

	c.mu.Lock()
	switch {
	case c.recording:
		c.mu.Unlock()
		return ErrAlreadyRecording
	case c.pending || c.transcribing:
		c.mu.Unlock()
		return ErrBusy
	}
	// занимаем слот до Start, чтобы второй BeginCapture не открыл устройство повторно
	c.recording = true
	c.mu.Unlock()

	if err := c.deps.Recorder.Start(ctx); err != nil {
		c.mu.Lock()
		c.recording = false
		c.mu.Unlock()
		c.logError("[session] error accessing microphone", err)
		return fmt.Errorf("start capture: %w", err)
	}

	c.changed()
	return nil
}

// EndCapture останавливает запись и расшифровывает её в поле ввода.
// Сам текст не отправляется.
func (c *Controller) EndCapture(ctx context.Context) (string, error) {
	c.mu.Lock()
	if !c.recording {
		c.mu.Unlock()
		return "", ErrNotRecording
	}
	c.recording = false
	c.transcribing = true
	c.mu.Unlock()
	c.changed()

	defer func() {
		c.mu.Lock()
		c.transcribing = false
		c.mu.Unlock()
		c.changed()
	}()

	text, err := c.transcribe(ctx)
	if err != nil {
		// сначала alert, потом сброс флага (defer)
		c.logError("[session] error transcribing audio", err)
		c.alert(ctx, err, transcribeFailedMsg)
		return "", err
	}

	c.mu.Lock()
	c.input = text
	c.mu.Unlock()

	return text, nil
}

func (c *Controller) transcribe(ctx context.Context) (string, error) {
	audio, err := c.deps.Recorder.Stop(ctx)
	if err != nil {
		return "", fmt.Errorf("stop capture: %w", err)
	}
	return c.deps.Transcriber.Transcribe(ctx, audio)
}

// Synthesize не трогает транскрипт. Ответ обязан быть непустым аудио,
// иначе это такой же сбой, как обрыв сети.
func (c *Controller) Synthesize(ctx context.Context, text string) error {
	audio, err := c.deps.Synthesizer.Synthesize(ctx, text)
	if err == nil {
		err = audio.Playable()
	}
	if err != nil {
		c.logError("[session] error generating speech", err)
		c.alert(ctx, err, speechFailedMsg)
		return fmt.Errorf("synthesize: %w", err)
	}

	if c.deps.Player == nil {
		return nil
	}
	if err := c.deps.Player.Play(ctx, audio); err != nil {
		// ошибка проигрывания пользователю не показывается, только лог
		c.logError("[session] error playing audio", err)
	}
	return nil
}

func (c *Controller) SetInput(text string) {
	c.mu.Lock()
	c.input = text
	c.mu.Unlock()
	c.changed()
}

func (c *Controller) Input() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

// Transcript — копия, системная реплика всегда первая
func (c *Controller) Transcript() []Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Turn(nil), c.transcript...)
}

func (c *Controller) Messages() []ports.Message {
	return ToMessages(c.Transcript())
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return State{
		Transcript:   append([]Turn(nil), c.transcript...),
		Pending:      c.pending,
		Recording:    c.recording,
		Transcribing: c.transcribing,
		Input:        c.input,
		Phase:        c.phaseLocked(),
	}
}

func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phaseLocked()
}

func (c *Controller) phaseLocked() Phase {
	switch {
	case c.pending:
		return PhasePending
	case c.transcribing:
		return PhaseTranscribing
	case c.recording:
		return PhaseRecording
	}
	return PhaseIdle
}

func (c *Controller) changed() {
	if c.deps.OnChange != nil {
		c.deps.OnChange(c.State())
	}
}

func (c *Controller) alert(ctx context.Context, err error, fallback string) {
	msg := fallback
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	if c.deps.Alerter != nil {
		c.deps.Alerter.Alert(ctx, msg)
	}
}

func (c *Controller) logError(msg string, err error) {
	c.deps.Log.Log(logger.LogEntry{
		Level:   "error",
		Message: msg,
		Error:   err,
		Service: "tartarus_chat",
	})
}
