package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// SuggestionMode selects the suggestion-length policy.
type SuggestionMode string

const (
	// SuggestionCap bounds the suggested answer by a fixed word maximum.
	SuggestionCap SuggestionMode = "cap"
	// SuggestionShrink requires the suggestion to stay under the original
	// answer's word count.
	SuggestionShrink SuggestionMode = "shrink"
)

type Config struct {
	Port string

	// Model API
	GeminiAPIKey string
	ModelName    string
	UseMockModel bool

	// Speech platform
	DeepgramAPIKey string
	TTSModel       string
	STTEndpoint    string
	STTAPIKey      string
	Locale         string
	VoiceVendor    string

	// Listening limits
	ListenMax  time.Duration
	ListenIdle time.Duration

	// Answer-submission pacing delay before requesting the follow-up.
	FollowUpDelay time.Duration

	// Suggestion-length policy
	SuggestionMode        SuggestionMode
	SuggestionMaxWords    int
	SuggestionShortTarget int
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v == "1" || v == "true" || v == "TRUE"
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// Load reads all env vars and builds the config. A .env file, if present, is
// loaded first.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file loaded")
	}

	cfg := &Config{
		Port: getEnv("PORT", "8080"),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		ModelName:    getEnv("INTERVIEW_MODEL_NAME", "gemini-2.5-flash"),
		UseMockModel: getEnvBool("INTERVIEW_USE_MOCK_MODEL", false),

		DeepgramAPIKey: getEnv("DEEPGRAM_API_KEY", ""),
		TTSModel:       getEnv("INTERVIEW_TTS_MODEL", "aura-2-thalia-en"),
		STTEndpoint:    getEnv("INTERVIEW_STT_ENDPOINT", ""),
		STTAPIKey:      getEnv("INTERVIEW_STT_API_KEY", ""),
		Locale:         getEnv("INTERVIEW_LOCALE", "en-IN"),
		VoiceVendor:    getEnv("INTERVIEW_VOICE_VENDOR", "Google"),

		ListenMax:  time.Duration(getEnvInt("INTERVIEW_LISTEN_MAX_SECONDS", 120)) * time.Second,
		ListenIdle: time.Duration(getEnvInt("INTERVIEW_LISTEN_IDLE_SECONDS", 10)) * time.Second,

		FollowUpDelay: time.Duration(getEnvInt("INTERVIEW_FOLLOW_UP_DELAY_MS", 500)) * time.Millisecond,

		SuggestionMode:        SuggestionMode(getEnv("INTERVIEW_SUGGESTION_MODE", string(SuggestionCap))),
		SuggestionMaxWords:    getEnvInt("INTERVIEW_SUGGESTION_MAX_WORDS", 120),
		SuggestionShortTarget: getEnvInt("INTERVIEW_SUGGESTION_SHORT_TARGET", 60),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks configuration consistency.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if !c.UseMockModel && c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY must be set unless INTERVIEW_USE_MOCK_MODEL is enabled")
	}
	switch c.SuggestionMode {
	case SuggestionCap, SuggestionShrink:
	default:
		return fmt.Errorf("INTERVIEW_SUGGESTION_MODE must be %q or %q", SuggestionCap, SuggestionShrink)
	}
	if c.SuggestionMaxWords <= 0 || c.SuggestionShortTarget <= 0 {
		return fmt.Errorf("suggestion word limits must be > 0")
	}
	if c.ListenMax <= 0 || c.ListenIdle <= 0 {
		return fmt.Errorf("listening limits must be > 0")
	}
	return nil
}
