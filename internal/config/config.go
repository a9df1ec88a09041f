package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-ini/ini"
	"github.com/joho/godotenv"
)

const (
	ProviderOpenAI     = "openai"
	ProviderDeepgram   = "deepgram"
	ProviderElevenLabs = "elevenlabs"

	defaultConfigPath = "tartarus.ini"
)

type Config struct {
	Port string

	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIVoice   string

	STTProvider      string
	DeepgramKey      string
	DeepgramLanguage string

	TTSProvider       string
	ElevenLabsKey     string
	ElevenLabsVoiceID string

	RateLimitPerMinute int
	CORSOrigins        []string
	LiveSessions       int
	Persona            string

	TelegramAlertToken   string
	TelegramAlertChatIDs string
}

// Load: .env → ini-файл (TARTARUS_CONFIG) как значения по умолчанию → переменные окружения поверх.
func Load() (*Config, error) {
	_ = godotenv.Load()

	path := os.Getenv("TARTARUS_CONFIG")
	if path == "" {
		path = defaultConfigPath
	}

	// LooseLoad молча пропускает отсутствующий файл
	file, err := ini.LooseLoad(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	return fromSources(file, os.Getenv)
}

func fromSources(file *ini.File, env func(string) string) (*Config, error) {
	get := func(section, key, envName, def string) string {
		if v := strings.TrimSpace(env(envName)); v != "" {
			return v
		}
		if v := strings.TrimSpace(file.Section(section).Key(key).String()); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		Port: get("server", "port", "PORT", "8080"),

		OpenAIKey:     get("openai", "api_key", "OPENAI_API_KEY", ""),
		OpenAIBaseURL: get("openai", "base_url", "OPENAI_BASE_URL", ""),
		OpenAIVoice:   get("openai", "tts_voice", "OPENAI_TTS_VOICE", ""),

		STTProvider:      strings.ToLower(get("speech", "stt_provider", "STT_PROVIDER", ProviderOpenAI)),
		DeepgramKey:      get("deepgram", "api_key", "DEEPGRAM_API_KEY", ""),
		DeepgramLanguage: get("deepgram", "language", "DEEPGRAM_LANGUAGE", "en"),

		TTSProvider:       strings.ToLower(get("speech", "tts_provider", "TTS_PROVIDER", ProviderOpenAI)),
		ElevenLabsKey:     get("elevenlabs", "api_key", "ELEVENLABS_API_KEY", ""),
		ElevenLabsVoiceID: get("elevenlabs", "voice_id", "ELEVENLABS_VOICE_ID", ""),

		CORSOrigins: splitList(get("server", "cors_origins", "CORS_ORIGINS", "*")),
		Persona:     get("session", "persona", "SESSION_PERSONA", ""),

		TelegramAlertToken:   get("alerts", "telegram_token", "TELEGRAM_ALERT_TOKEN", ""),
		TelegramAlertChatIDs: get("alerts", "telegram_chat_ids", "TELEGRAM_ALERT_CHAT_IDS", ""),
	}

	var err error
	if cfg.RateLimitPerMinute, err = atoi(get("server", "rate_limit_per_minute", "RATE_LIMIT_PER_MINUTE", "60")); err != nil {
		return nil, fmt.Errorf("RATE_LIMIT_PER_MINUTE: %w", err)
	}
	if cfg.LiveSessions, err = atoi(get("session", "live_sessions", "LIVE_SESSIONS", "32")); err != nil {
		return nil, fmt.Errorf("LIVE_SESSIONS: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.OpenAIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is not set")
	}

	switch c.STTProvider {
	case ProviderOpenAI:
	case ProviderDeepgram:
		if c.DeepgramKey == "" {
			return fmt.Errorf("STT_PROVIDER=deepgram requires DEEPGRAM_API_KEY")
		}
	default:
		return fmt.Errorf("unknown STT_PROVIDER %q", c.STTProvider)
	}

	switch c.TTSProvider {
	case ProviderOpenAI:
	case ProviderElevenLabs:
		if c.ElevenLabsKey == "" {
			return fmt.Errorf("TTS_PROVIDER=elevenlabs requires ELEVENLABS_API_KEY")
		}
	default:
		return fmt.Errorf("unknown TTS_PROVIDER %q", c.TTSProvider)
	}

	return nil
}

// AlertsEnabled — алерты в телеграм включаются только парой токен + чаты
func (c *Config) AlertsEnabled() bool {
	return c.TelegramAlertToken != "" && c.TelegramAlertChatIDs != ""
}

func atoi(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	return n, nil
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
