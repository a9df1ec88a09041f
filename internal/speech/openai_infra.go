package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/Vovarama1992/tartarus_chat/internal/ports"
	openai "github.com/sashabaranov/go-openai"
)

const defaultOpenAIVoice = openai.VoiceOnyx

// OpenAIClient — Whisper для STT и tts-1 для TTS
type OpenAIClient struct {
	client *openai.Client
	voice  openai.SpeechVoice
}

func NewOpenAIClient(apiKey, baseURL, voice string) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	v := openai.SpeechVoice(voice)
	if voice == "" {
		v = defaultOpenAIVoice
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		voice:  v,
	}
}

// VOICE → TEXT
func (c *OpenAIClient) Transcribe(ctx context.Context, audio ports.Audio) (string, error) {
	name := audio.Filename
	if name == "" {
		name = "audio.webm"
	}

	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: name,
		Reader:   bytes.NewReader(audio.Data),
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", fmt.Errorf("whisper request: %w", err)
	}
	return resp.Text, nil
}

// TEXT → SPEECH
func (c *OpenAIClient) Synthesize(ctx context.Context, text string) (ports.Audio, error) {
	raw, err := c.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.TTSModel1,
		Input:          text,
		Voice:          c.voice,
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return ports.Audio{}, fmt.Errorf("openai speech request: %w", err)
	}
	defer raw.Close()

	data, err := io.ReadAll(raw)
	if err != nil {
		return ports.Audio{}, fmt.Errorf("read speech body: %w", err)
	}

	return ports.Audio{
		ContentType: raw.Header().Get("Content-Type"),
		Filename:    "speech.mp3",
		Data:        data,
	}, nil
}
