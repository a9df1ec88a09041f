package ports

import (
	"errors"
	"mime"
	"strings"
)

var (
	ErrNotAudio   = errors.New("response was not audio format")
	ErrEmptyAudio = errors.New("empty audio received from API")
)

// Audio — записанный голос (вход STT) или синтезированная речь (выход TTS)
type Audio struct {
	ContentType string
	Filename    string
	Data        []byte
}

// Size в байтах
func (a Audio) Size() int {
	return len(a.Data)
}

// Playable проверяет, что это действительно аудио и оно не пустое.
func (a Audio) Playable() error {
	if !IsAudioType(a.ContentType) {
		return ErrNotAudio
	}
	if len(a.Data) == 0 {
		return ErrEmptyAudio
	}
	return nil
}

func IsAudioType(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mt, "audio/")
}
