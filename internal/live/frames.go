package live

import "github.com/Vovarama1992/tartarus_chat/internal/session"

// типы входящих кадров
const (
	frameInput        = "input"
	frameSubmit       = "submit"
	frameCaptureBegin = "capture_begin"
	frameCaptureChunk = "capture_chunk"
	frameCaptureEnd   = "capture_end"
	frameSpeak        = "speak"
)

// типы исходящих кадров
const (
	frameState = "state"
	frameAlert = "alert"
	frameAudio = "audio"
	frameError = "error"
)

type clientFrame struct {
	Type        string  `json:"type"`
	Text        *string `json:"text,omitempty"`
	AudioBase64 string  `json:"audio_base64,omitempty"`
	Mime        string  `json:"mime,omitempty"`
}

type serverFrame struct {
	Type        string         `json:"type"`
	State       *session.State `json:"state,omitempty"`
	Message     string         `json:"message,omitempty"`
	Mime        string         `json:"mime,omitempty"`
	AudioBase64 string         `json:"audio_base64,omitempty"`
	Error       string         `json:"error,omitempty"`
}
