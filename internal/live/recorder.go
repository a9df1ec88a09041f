package live

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/Vovarama1992/tartarus_chat/internal/ports"
)

var errCaptureIdle = errors.New("capture chunk outside of capture")

const defaultCaptureMime = "audio/webm"

// chunkRecorder — «микрофон» на стороне сервера: копит куски, присланные страницей
// между capture_begin и capture_end.
type chunkRecorder struct {
	mu      sync.Mutex
	active  bool
	mime    string
	buf     bytes.Buffer
	maxSize int
}

func newChunkRecorder(maxSize int) *chunkRecorder {
	return &chunkRecorder{maxSize: maxSize}
}

func (r *chunkRecorder) Start(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.active = true
	r.mime = ""
	r.buf.Reset()
	return nil
}

func (r *chunkRecorder) Append(data []byte, mime string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.active {
		return errCaptureIdle
	}
	if r.maxSize > 0 && r.buf.Len()+len(data) > r.maxSize {
		return errors.New("capture exceeds size limit")
	}
	if r.mime == "" && mime != "" {
		r.mime = mime
	}
	r.buf.Write(data)
	return nil
}

// Stop отдаёт накопленное одним файлом и освобождает буфер
func (r *chunkRecorder) Stop(_ context.Context) (ports.Audio, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.active = false
	mime := r.mime
	if mime == "" {
		mime = defaultCaptureMime
	}

	data := append([]byte(nil), r.buf.Bytes()...)
	r.buf.Reset()

	return ports.Audio{
		ContentType: mime,
		Filename:    "recording" + extensionFor(mime),
		Data:        data,
	}, nil
}

func extensionFor(mime string) string {
	switch {
	case strings.HasPrefix(mime, "audio/ogg"):
		return ".ogg"
	case strings.HasPrefix(mime, "audio/wav"):
		return ".wav"
	case strings.HasPrefix(mime, "audio/mp4"):
		return ".m4a"
	case strings.HasPrefix(mime, "audio/mpeg"):
		return ".mp3"
	}
	return ".webm"
}
