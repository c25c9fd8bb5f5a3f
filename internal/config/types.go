package config

import "time"

type Config struct {
	SettingsPath string
	LLM          LLMConfig
	Speech       SpeechConfig
	OCR          OCRConfig
	Bot          BotConfig
	Storage      StorageConfig
	Heartbeat    HeartbeatConfig
}

type LLMConfig struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
	Timeout  time.Duration
}

// SpeechConfig points at an OpenAI-compatible transcription server.
// Voice input is disabled when BaseURL is empty.
type SpeechConfig struct {
	Enabled       bool
	BaseURL       string
	APIKey        string
	Model         string
	ListenTimeout time.Duration
	PhraseLimit   time.Duration
}

type OCRConfig struct {
	Command string
}

type BotConfig struct {
	Provider    string
	Token       string
	OwnerChatID int64
}

type StorageConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

type HeartbeatConfig struct {
	Schedule string
	ChatID   int64
}
