package main

import (
	"log"
	"net/http"
	"time"

	"github.com/Vovarama1992/go-utils/logger"

	"github.com/Vovarama1992/tartarus_chat/internal/ai"
	"github.com/Vovarama1992/tartarus_chat/internal/config"
	"github.com/Vovarama1992/tartarus_chat/internal/delivery"
	"github.com/Vovarama1992/tartarus_chat/internal/error_notificator"
	"github.com/Vovarama1992/tartarus_chat/internal/live"
	"github.com/Vovarama1992/tartarus_chat/internal/speech"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

const serviceName = "tartarus_chat"

func main() {

	// =========================================================================
	// ENV / CONFIG
	// =========================================================================

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	baseLogger, _ := zap.NewProduction()
	defer baseLogger.Sync()
	zl := logger.NewZapLogger(baseLogger.Sugar())

	// =========================================================================
	// ERROR NOTIFICATION
	// =========================================================================

	var alerts error_notificator.Notificator
	if cfg.AlertsEnabled() {
		chatIDs, err := error_notificator.ParseChatIDs(cfg.TelegramAlertChatIDs)
		if err != nil {
			log.Fatalf("TELEGRAM_ALERT_CHAT_IDS: %v", err)
		}
		tg, err := error_notificator.NewTelegramInfra(cfg.TelegramAlertToken, chatIDs)
		if err != nil {
			// без алертов сервис всё равно работает, ошибки останутся в логах
			zl.Log(logger.LogEntry{Level: "warn", Message: "telegram alerts disabled", Error: err, Service: serviceName})
		} else {
			alerts = tg
		}
	}
	errService := error_notificator.NewService(alerts, zl)

	// =========================================================================
	// CLIENTS (AI / STT / TTS)
	// =========================================================================

	completionClient := ai.NewOpenAIClient(cfg.OpenAIKey, cfg.OpenAIBaseURL)

	var tokens ai.TokenCounter
	if counter, err := ai.NewTiktokenCounter(); err != nil {
		zl.Log(logger.LogEntry{Level: "warn", Message: "token estimate disabled", Error: err, Service: serviceName})
	} else {
		tokens = counter
	}

	openAISpeech := speech.NewOpenAIClient(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.OpenAIVoice)

	var stt speech.STTClient = openAISpeech
	if cfg.STTProvider == config.ProviderDeepgram {
		stt = speech.NewDeepgramClient(cfg.DeepgramKey, cfg.DeepgramLanguage)
	}

	var tts speech.TTSClient = openAISpeech
	if cfg.TTSProvider == config.ProviderElevenLabs {
		tts = speech.NewElevenLabsClient(cfg.ElevenLabsKey, cfg.ElevenLabsVoiceID)
	}

	// =========================================================================
	// DOMAIN SERVICES
	// =========================================================================

	aiService := ai.NewService(completionClient, tokens, errService, zl)
	speechService := speech.NewService(stt, tts, errService, zl)

	// =========================================================================
	// HTTP ROUTER
	// =========================================================================

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	chatHandler := delivery.NewChatHandler(aiService, zl)
	speechHandler := delivery.NewSpeechHandler(speechService, zl)

	var liveHost http.Handler
	if cfg.LiveSessions > 0 {
		liveHost = live.NewHost(aiService, speechService, speechService, cfg.Persona, cfg.LiveSessions, cfg.CORSOrigins, zl)
	}

	delivery.RegisterRoutes(r, chatHandler, speechHandler, liveHost, cfg.RateLimitPerMinute)

	// =========================================================================
	// START SERVER
	// =========================================================================

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	zl.Log(logger.LogEntry{
		Level:   "info",
		Message: "listening at " + srv.Addr + " (stt=" + cfg.STTProvider + ", tts=" + cfg.TTSProvider + ")",
		Service: serviceName,
	})

	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
