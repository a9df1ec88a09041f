package live

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/tartarus_chat/internal/session"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	serviceName = "tartarus_chat"

	// 25MB аудио в base64 плюс запас на кадр
	maxFrameSize   = 36 << 20
	maxCaptureSize = 25 << 20

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Host держит по одному session.Controller на каждое соединение.
// Контроллер живёт, пока жив сокет.
type Host struct {
	completer   session.Completer
	transcriber session.Transcriber
	synthesizer session.Synthesizer
	persona     string
	log         *logger.ZapLogger

	upgrader websocket.Upgrader
	limit    int64
	active   atomic.Int64
}

// maxSessions <= 0 — без ограничения
func NewHost(
	completer session.Completer,
	transcriber session.Transcriber,
	synthesizer session.Synthesizer,
	persona string,
	maxSessions int,
	allowedOrigins []string,
	log *logger.ZapLogger,
) *Host {
	return &Host{
		completer:   completer,
		transcriber: transcriber,
		synthesizer: synthesizer,
		persona:     persona,
		log:         log,
		limit:       int64(maxSessions),
		upgrader: websocket.Upgrader{
			CheckOrigin: originChecker(allowedOrigins),
		},
	}
}

// originChecker — тот же список, что у CORS: cors.Handler апгрейд не видит.
// Без Origin (не браузер) и с того же хоста пускаем всегда.
func originChecker(allowed []string) func(*http.Request) bool {
	allowAll := false
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		o = strings.TrimRight(strings.ToLower(strings.TrimSpace(o)), "/")
		if o == "*" {
			allowAll = true
		}
		set[o] = struct{}{}
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || allowAll {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		if strings.EqualFold(u.Host, r.Host) {
			return true
		}
		_, ok := set[strings.TrimRight(strings.ToLower(origin), "/")]
		return ok
	}
}

// GET /session
func (h *Host) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if n := h.active.Add(1); h.limit > 0 && n > h.limit {
		h.active.Add(-1)
		http.Error(w, "too many live sessions", http.StatusServiceUnavailable)
		return
	}
	defer h.active.Add(-1)

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade уже ответил клиенту
		h.log.Log(logger.LogEntry{Level: "warn", Message: "[live] upgrade failed", Error: err, Service: serviceName})
		return
	}

	// контекст не от запроса: после апгрейда он живёт своей жизнью
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := newConn(ws, uuid.NewString(), h.log)
	c.ctrl = session.New(h.persona, session.Deps{
		Completer:   h.completer,
		Transcriber: h.transcriber,
		Synthesizer: h.synthesizer,
		Recorder:    c.recorder,
		Player:      c,
		Alerter:     c,
		Log:         h.log,
		OnChange:    c.sendState,
	})

	c.run(ctx, cancel)
}
