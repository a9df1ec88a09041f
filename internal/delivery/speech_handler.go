package delivery

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/tartarus_chat/internal/ports"
	"github.com/Vovarama1992/tartarus_chat/internal/speech"
	json "github.com/goccy/go-json"
)

const (
	// лимит Whisper на файл
	maxAudioUpload = 25 << 20
	maxSpeechBody  = 64 << 10
)

type SpeechService interface {
	Transcribe(ctx context.Context, audio ports.Audio) (string, error)
	Synthesize(ctx context.Context, text string) (ports.Audio, error)
}

type SpeechHandler struct {
	svc SpeechService
	log *logger.ZapLogger
}

func NewSpeechHandler(svc SpeechService, log *logger.ZapLogger) *SpeechHandler {
	return &SpeechHandler{svc: svc, log: log}
}

// POST /speech — один эндпоинт, два режима. Решаем один раз по заявленному Content-Type.
func (h *SpeechHandler) Handle(w http.ResponseWriter, r *http.Request) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		writeError(w, http.StatusUnsupportedMediaType, "missing or invalid Content-Type")
		return
	}

	switch mediaType {
	case "multipart/form-data":
		h.Transcribe(w, r)
	case "application/json":
		h.Synthesize(w, r)
	default:
		writeError(w, http.StatusUnsupportedMediaType,
			"unsupported Content-Type "+mediaType+": expected multipart/form-data or application/json")
	}
}

// multipart с аудио → {text}
func (h *SpeechHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAudioUpload)
	if err := r.ParseMultipartForm(maxAudioUpload); err != nil {
		h.log.Log(logger.LogEntry{Level: "warn", Message: "speech: invalid multipart", Error: err})
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		file, header, err = r.FormFile("audio")
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "No audio file provided")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.log.Log(logger.LogEntry{Level: "warn", Message: "speech: unreadable audio", Error: err})
		writeError(w, http.StatusBadRequest, "Audio file is unreadable")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = "audio/webm"
	}

	text, err := h.svc.Transcribe(r.Context(), ports.Audio{
		ContentType: contentType,
		Filename:    header.Filename,
		Data:        data,
	})
	if err != nil {
		h.writeSpeechError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}

// JSON {text} → бинарное аудио
func (h *SpeechHandler) Synthesize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSpeechBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	audio, err := h.svc.Synthesize(r.Context(), req.Text)
	if err != nil {
		h.writeSpeechError(w, err)
		return
	}

	w.Header().Set("Content-Type", audio.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(audio.Size()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio.Data)
}

func (h *SpeechHandler) writeSpeechError(w http.ResponseWriter, err error) {
	var se *speech.Error
	if errors.As(err, &se) {
		writeError(w, speech.StatusOf(err), se.Reason)
		return
	}
	h.log.Log(logger.LogEntry{Level: "error", Message: "speech: unexpected error", Error: err})
	writeError(w, http.StatusInternalServerError, "speech request failed")
}
