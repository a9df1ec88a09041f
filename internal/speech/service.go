package speech

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/tartarus_chat/internal/error_notificator"
	"github.com/Vovarama1992/tartarus_chat/internal/ports"
	humanize "github.com/dustin/go-humanize"
)

const (
	serviceName = "tartarus_chat"

	// лимит tts-1 на input
	MaxSpeechChars = 4096

	speechTimeout = 90 * time.Second

	// оба провайдера синтеза запрашиваются в mp3
	SpeechContentType = "audio/mpeg"
)

// === Единый сервис (и для стт и для ттс) ===

type Service struct {
	stt      STTClient
	tts      TTSClient
	notifier error_notificator.Notificator
	log      *logger.ZapLogger
}

func NewService(
	stt STTClient,
	tts TTSClient,
	notifier error_notificator.Notificator,
	log *logger.ZapLogger,
) *Service {
	return &Service{
		stt:      stt,
		tts:      tts,
		notifier: notifier,
		log:      log,
	}
}

func (s *Service) Transcribe(ctx context.Context, audio ports.Audio) (string, error) {
	if len(audio.Data) == 0 {
		return "", transcriptionError(http.StatusBadRequest, "Audio file is empty", nil)
	}

	start := time.Now()
	s.info(fmt.Sprintf("[speech] transcribe start file=%q type=%s size=%s",
		audio.Filename, audio.ContentType, humanize.Bytes(uint64(audio.Size()))))

	ctx, cancel := context.WithTimeout(ctx, speechTimeout)
	defer cancel()

	text, err := s.stt.Transcribe(ctx, audio)
	if err != nil {
		_ = s.notifier.Notify(ctx, "speech", err, fmt.Sprintf(
			"Transcription failed after %s, audio %s (%s)",
			time.Since(start).Round(time.Millisecond), humanize.Bytes(uint64(audio.Size())), audio.ContentType,
		))
		return "", transcriptionError(http.StatusBadGateway, "Failed to transcribe audio", err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", transcriptionError(http.StatusUnprocessableEntity, "No speech recognized", nil)
	}

	s.info(fmt.Sprintf("[speech] transcribed in %s, chars=%d", time.Since(start).Round(time.Millisecond), len(text)))
	return text, nil
}

func (s *Service) Synthesize(ctx context.Context, text string) (ports.Audio, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return ports.Audio{}, synthesisError(http.StatusBadRequest, "Text is required", nil)
	}
	if utf8.RuneCountInString(text) > MaxSpeechChars {
		return ports.Audio{}, synthesisError(http.StatusBadRequest,
			fmt.Sprintf("Text exceeds %d characters", MaxSpeechChars), nil)
	}

	start := time.Now()
	s.info(fmt.Sprintf("[speech] synthesize start chars=%d", len(text)))

	ctx, cancel := context.WithTimeout(ctx, speechTimeout)
	defer cancel()

	audio, err := s.tts.Synthesize(ctx, text)
	if err != nil {
		_ = s.notifier.Notify(ctx, "speech", err, fmt.Sprintf(
			"Synthesis failed after %s, text chars=%d", time.Since(start).Round(time.Millisecond), len(text),
		))
		return ports.Audio{}, synthesisError(http.StatusBadGateway, "Failed to generate speech", err)
	}

	if err := audio.Playable(); err != nil {
		reason := "Response was not audio format"
		if errors.Is(err, ports.ErrEmptyAudio) {
			reason = "Empty audio received from API"
		}
		_ = s.notifier.Notify(ctx, "speech", err, fmt.Sprintf(
			"Synthesis returned unusable audio: content-type=%q size=%d", audio.ContentType, audio.Size(),
		))
		return ports.Audio{}, synthesisError(http.StatusBadGateway, reason, err)
	}

	// провайдеры отдают mp3 как audio/mpeg, audio/mp3 и т.п., наружу всегда один тип
	audio.ContentType = SpeechContentType

	s.info(fmt.Sprintf("[speech] synthesized %s (%s) in %s",
		humanize.Bytes(uint64(audio.Size())), audio.ContentType, time.Since(start).Round(time.Millisecond)))
	return audio, nil
}

func (s *Service) info(msg string) {
	s.log.Log(logger.LogEntry{Level: "info", Message: msg, Service: serviceName})
}
