package delivery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/tartarus_chat/internal/ai"
	"github.com/Vovarama1992/tartarus_chat/internal/ports"
	"github.com/Vovarama1992/tartarus_chat/internal/speech"
	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func nopLogger() *logger.ZapLogger {
	return logger.NewZapLogger(zap.NewNop().Sugar())
}

type fakeChat struct {
	reply ports.Message
	err   error
	got   []ports.Message
}

func (f *fakeChat) Complete(_ context.Context, messages []ports.Message) (ports.Message, error) {
	f.got = messages
	return f.reply, f.err
}

type fakeSpeech struct {
	text     string
	audio    ports.Audio
	err      error
	gotAudio ports.Audio
	gotText  string
}

func (f *fakeSpeech) Transcribe(_ context.Context, audio ports.Audio) (string, error) {
	f.gotAudio = audio
	return f.text, f.err
}

func (f *fakeSpeech) Synthesize(_ context.Context, text string) (ports.Audio, error) {
	f.gotText = text
	return f.audio, f.err
}

func newRouter(chat ChatService, sp SpeechService, perMinute int) http.Handler {
	r := chi.NewRouter()
	RegisterRoutes(r, NewChatHandler(chat, nopLogger()), NewSpeechHandler(sp, nopLogger()), nil, perMinute)
	return r
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func multipartBody(t *testing.T, field, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("note", "no file here"))
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func TestChat_ReturnsAssistantMessage(t *testing.T) {
	t.Parallel()

	chat := &fakeChat{reply: ports.Message{Role: ports.RoleAssistant, Content: "Why did the chicken cross the road?"}}
	h := newRouter(chat, &fakeSpeech{}, 0)

	body := `{"messages":[{"role":"system","content":"persona"},{"role":"user","content":"Tell me a joke"}]}`
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	out := decodeBody(t, rec)
	assert.Equal(t, "assistant", out["role"])
	assert.Equal(t, "Why did the chicken cross the road?", out["content"])
	require.Len(t, chat.got, 2)
	assert.Equal(t, ports.RoleUser, chat.got[1].Role)
}

func TestChat_Errors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		body   string
		err    error
		status int
		msg    string
	}{
		{
			name:   "malformed json",
			body:   `{"messages":`,
			status: http.StatusBadRequest,
			msg:    "invalid json",
		},
		{
			name:   "invalid transcript",
			body:   `{"messages":[]}`,
			err:    fmt.Errorf("%w: messages are required", ai.ErrInvalidTranscript),
			status: http.StatusBadRequest,
			msg:    "invalid transcript: messages are required",
		},
		{
			name:   "upstream failure is opaque",
			body:   `{"messages":[{"role":"system","content":"p"}]}`,
			err:    fmt.Errorf("%w: %w", ai.ErrUpstream, errors.New("401 invalid api key sk-secret")),
			status: http.StatusInternalServerError,
			msg:    ai.PublicErrorMessage,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			h := newRouter(&fakeChat{err: tc.err}, &fakeSpeech{}, 0)
			req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.msg, decodeBody(t, rec)["error"])
			assert.NotContains(t, rec.Body.String(), "sk-secret")
		})
	}
}

func TestSpeech_TranscribeMultipart(t *testing.T) {
	t.Parallel()

	for _, field := range []string{"file", "audio"} {
		t.Run(field, func(t *testing.T) {
			t.Parallel()

			sp := &fakeSpeech{text: "hello grandpa"}
			h := newRouter(&fakeChat{}, sp, 0)

			body, ct := multipartBody(t, field, "recording.webm", []byte("webm-bytes"))
			req := httptest.NewRequest(http.MethodPost, "/speech", body)
			req.Header.Set("Content-Type", ct)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "hello grandpa", decodeBody(t, rec)["text"])
			assert.Equal(t, "recording.webm", sp.gotAudio.Filename)
			assert.Equal(t, []byte("webm-bytes"), sp.gotAudio.Data)
			assert.Equal(t, "audio/webm", sp.gotAudio.ContentType)
		})
	}
}

func TestSpeech_TranscribeWithoutFile(t *testing.T) {
	t.Parallel()

	h := newRouter(&fakeChat{}, &fakeSpeech{}, 0)
	body, ct := multipartBody(t, "", "", nil)
	req := httptest.NewRequest(http.MethodPost, "/speech", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No audio file provided", decodeBody(t, rec)["error"])
}

func TestSpeech_SynthesizeReturnsBinaryAudio(t *testing.T) {
	t.Parallel()

	sp := &fakeSpeech{audio: ports.Audio{ContentType: "audio/mpeg", Data: []byte("ID3-mp3")}}
	h := newRouter(&fakeChat{}, sp, 0)

	req := httptest.NewRequest(http.MethodPost, "/speech", strings.NewReader(`{"text":"Back in my day"}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio/mpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, "7", rec.Header().Get("Content-Length"))
	assert.Equal(t, []byte("ID3-mp3"), rec.Body.Bytes())
	assert.Equal(t, "Back in my day", sp.gotText)
}

func TestSpeech_ServiceErrorsKeepReason(t *testing.T) {
	t.Parallel()

	cause := errors.New("dial tcp: connection refused")
	err := &speech.Error{
		Kind:   speech.ErrSynthesis,
		Reason: "Failed to generate speech",
		Status: http.StatusBadGateway,
		Cause:  cause,
	}
	h := newRouter(&fakeChat{}, &fakeSpeech{err: err}, 0)

	req := httptest.NewRequest(http.MethodPost, "/speech", strings.NewReader(`{"text":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "Failed to generate speech", decodeBody(t, rec)["error"])
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestSpeech_UnsupportedContentType(t *testing.T) {
	t.Parallel()

	h := newRouter(&fakeChat{}, &fakeSpeech{}, 0)

	for _, ct := range []string{"text/plain", ""} {
		req := httptest.NewRequest(http.MethodPost, "/speech", strings.NewReader("hi"))
		if ct != "" {
			req.Header.Set("Content-Type", ct)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code, "content-type %q", ct)
	}
}

func TestRoutes_RateLimit(t *testing.T) {
	t.Parallel()

	chat := &fakeChat{reply: ports.Message{Role: ports.RoleAssistant, Content: "ok"}}
	h := newRouter(chat, &fakeSpeech{}, 2)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/chat",
			strings.NewReader(`{"messages":[{"role":"system","content":"p"}]}`))
		req.RemoteAddr = "10.0.0.7:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRoutes_Ping(t *testing.T) {
	t.Parallel()

	h := newRouter(&fakeChat{}, &fakeSpeech{}, 1)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}
