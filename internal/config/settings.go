package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/bowerhall/codegene/internal/logger"
)

const (
	DefaultSystemPrompt   = "You are CodeGene AI, a helpful assistant."
	DefaultResearchPrompt = "You are a deep research assistant. Provide a detailed, factual, structured answer."
)

// Settings holds the prompt and model values that can be edited while the
// process runs. Secrets stay in the environment.
type Settings struct {
	mu           sync.RWMutex
	path         string
	defaultModel string
	data         SettingsData
}

// SettingsData is the YAML shape of the settings file
type SettingsData struct {
	Model          string `yaml:"model,omitempty"`
	SystemPrompt   string `yaml:"system_prompt,omitempty"`
	ResearchPrompt string `yaml:"research_prompt,omitempty"`
}

// LoadSettings reads the settings file at path. A missing file yields the
// defaults; defaultModel fills in when the file names no model.
func LoadSettings(path, defaultModel string) (*Settings, error) {
	s := &Settings{path: path, defaultModel: defaultModel}

	data, err := readSettings(path)
	if err != nil {
		return nil, err
	}

	s.data = withDefaults(data, defaultModel)
	return s, nil
}

// NewSettings builds settings in memory, without a backing file
func NewSettings(data SettingsData) *Settings {
	return &Settings{defaultModel: DefaultModel, data: withDefaults(data, DefaultModel)}
}

func readSettings(path string) (SettingsData, error) {
	var data SettingsData
	if path == "" {
		return data, nil
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return data, nil
	}
	if err != nil {
		return data, fmt.Errorf("read settings: %w", err)
	}

	if err := yaml.Unmarshal(raw, &data); err != nil {
		return data, fmt.Errorf("parse settings %s: %w", path, err)
	}

	return data, nil
}

func withDefaults(data SettingsData, defaultModel string) SettingsData {
	if data.Model == "" {
		data.Model = defaultModel
	}
	if data.SystemPrompt == "" {
		data.SystemPrompt = DefaultSystemPrompt
	}
	if data.ResearchPrompt == "" {
		data.ResearchPrompt = DefaultResearchPrompt
	}
	return data
}

func (s *Settings) Model() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Model
}

func (s *Settings) SystemPrompt() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.SystemPrompt
}

func (s *Settings) ResearchPrompt() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.ResearchPrompt
}

// Reload re-reads the backing file. On error the previous values stay.
func (s *Settings) Reload() error {
	data, err := readSettings(s.path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.data = withDefaults(data, s.defaultModel)
	s.mu.Unlock()

	return nil
}

// Watch reloads the settings whenever the file is written or replaced.
// It blocks until ctx is cancelled.
func (s *Settings) Watch(ctx context.Context) error {
	if s.path == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// watch the directory so editors that swap files in place are seen
	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	target := filepath.Clean(s.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := s.Reload(); err != nil {
				logger.Warn("settings reload failed", "path", s.path, "error", err)
				continue
			}
			logger.Info("settings reloaded", "path", s.path, "model", s.Model())
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("settings watcher error", "error", err)
		}
	}
}
