package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	DefaultModel      = "llama2:latest"
	DefaultOllamaHost = "http://localhost:11434"
)

func Load() (*Config, error) {
	settingsPath := os.Getenv("CODEGENE_SETTINGS")
	if settingsPath == "" {
		settingsPath = "codegene.yaml"
	}

	llmConfig, err := loadLLMConfig()
	if err != nil {
		return nil, err
	}

	speechConfig, err := loadSpeechConfig()
	if err != nil {
		return nil, err
	}

	botConfig, err := loadBotConfig()
	if err != nil {
		return nil, err
	}

	ocrCommand := os.Getenv("TESSERACT_CMD")
	if ocrCommand == "" {
		ocrCommand = "tesseract"
	}

	return &Config{
		SettingsPath: settingsPath,
		LLM:          llmConfig,
		Speech:       speechConfig,
		OCR:          OCRConfig{Command: ocrCommand},
		Bot:          botConfig,
		Storage:      loadStorageConfig(),
		Heartbeat:    loadHeartbeatConfig(),
	}, nil
}

func loadLLMConfig() (LLMConfig, error) {
	provider := os.Getenv("LLM_PROVIDER")
	if provider == "" {
		provider = "ollama"
	}

	apiKey, err := getAPIKey(provider)
	if err != nil {
		return LLMConfig{}, err
	}

	model := os.Getenv("LLM_MODEL")
	if model == "" && provider == "ollama" {
		model = DefaultModel
	}

	baseURL := os.Getenv("OLLAMA_HOST")
	if baseURL == "" && provider == "ollama" {
		baseURL = DefaultOllamaHost
	}

	timeout, err := durationEnv("LLM_TIMEOUT", 120*time.Second)
	if err != nil {
		return LLMConfig{}, err
	}

	return LLMConfig{
		Provider: provider,
		APIKey:   apiKey,
		Model:    model,
		BaseURL:  baseURL,
		Timeout:  timeout,
	}, nil
}

func loadSpeechConfig() (SpeechConfig, error) {
	listen, err := durationEnv("SPEECH_LISTEN_TIMEOUT", 5*time.Second)
	if err != nil {
		return SpeechConfig{}, err
	}

	phrase, err := durationEnv("SPEECH_PHRASE_LIMIT", 10*time.Second)
	if err != nil {
		return SpeechConfig{}, err
	}

	model := os.Getenv("STT_MODEL")
	if model == "" {
		model = "whisper-1"
	}

	baseURL := os.Getenv("STT_BASE_URL")

	return SpeechConfig{
		Enabled:       baseURL != "",
		BaseURL:       baseURL,
		APIKey:        os.Getenv("STT_API_KEY"),
		Model:         model,
		ListenTimeout: listen,
		PhraseLimit:   phrase,
	}, nil
}

func loadBotConfig() (BotConfig, error) {
	provider := os.Getenv("BOT_PROVIDER")
	if provider == "" {
		provider = "console"
	}

	var token string
	switch provider {
	case "console":
	case "telegram":
		token = os.Getenv("TELEGRAM_TOKEN")
		if token == "" {
			return BotConfig{}, fmt.Errorf("TELEGRAM_TOKEN not set")
		}
	case "discord":
		token = os.Getenv("DISCORD_TOKEN")
		if token == "" {
			return BotConfig{}, fmt.Errorf("DISCORD_TOKEN not set")
		}
	default:
		return BotConfig{}, fmt.Errorf("unknown BOT_PROVIDER: %s", provider)
	}

	var owner int64
	if raw := os.Getenv("TELEGRAM_OWNER_CHAT_ID"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return BotConfig{}, fmt.Errorf("invalid TELEGRAM_OWNER_CHAT_ID: %w", err)
		}
		owner = id
	}

	return BotConfig{
		Provider:    provider,
		Token:       token,
		OwnerChatID: owner,
	}, nil
}

func loadStorageConfig() StorageConfig {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		endpoint = "localhost:9000"
	}

	bucket := os.Getenv("MINIO_BUCKET")
	if bucket == "" {
		bucket = "codegene-exports"
	}

	accessKey := os.Getenv("MINIO_ACCESS_KEY")
	secretKey := os.Getenv("MINIO_SECRET_KEY")

	return StorageConfig{
		Enabled:   accessKey != "" && secretKey != "",
		Endpoint:  endpoint,
		AccessKey: accessKey,
		SecretKey: secretKey,
		UseSSL:    os.Getenv("MINIO_USE_SSL") == "true",
		Bucket:    bucket,
	}
}

func loadHeartbeatConfig() HeartbeatConfig {
	schedule := os.Getenv("HEARTBEAT_SCHEDULE")
	if schedule == "" {
		schedule = "@every 5m"
	}

	var chatID int64
	if id, err := strconv.ParseInt(os.Getenv("ALERT_CHAT_ID"), 10, 64); err == nil {
		chatID = id
	}

	return HeartbeatConfig{
		Schedule: schedule,
		ChatID:   chatID,
	}
}

func getAPIKey(provider string) (string, error) {
	if key := os.Getenv("LLM_API_KEY"); key != "" {
		return key, nil
	}

	switch provider {
	case "claude":
		key := os.Getenv("ANTHROPIC_API_KEY")
		if key == "" {
			return "", fmt.Errorf("ANTHROPIC_API_KEY not set")
		}
		return key, nil
	case "ollama":
		// Ollama doesn't need an API key
		return "", nil
	default:
		return "", fmt.Errorf("unknown provider: %s", provider)
	}
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}

	return d, nil
}
