package delivery

import (
	"net/http"
	"time"

	"github.com/Vovarama1992/go-utils/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

func RegisterRoutes(
	r chi.Router,
	hChat *ChatHandler,
	hSpeech *SpeechHandler,
	live http.Handler,
	requestsPerMinute int,
) {
	r.With(httputil.RecoverMiddleware).Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})

	// --- шлюзы к провайдерам ---
	r.Group(func(gr chi.Router) {
		gr.Use(httputil.RecoverMiddleware)
		if requestsPerMinute > 0 {
			gr.Use(rateLimit(requestsPerMinute))
		}

		gr.Post("/chat", hChat.Complete)
		gr.Post("/speech", hSpeech.Handle)
	})

	// --- живая сессия ---
	// без обёрток: апгрейду нужен исходный http.Hijacker
	if live != nil {
		r.Get("/session", live.ServeHTTP)
	}
}

// по IP: каждый запрос к шлюзу стоит денег у провайдера
func rateLimit(perMinute int) func(http.Handler) http.Handler {
	return httprate.Limit(
		perMinute,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		}),
	)
}
