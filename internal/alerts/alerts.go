package alerts

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bowerhall/codegene/internal/logger"
)

type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarn
	SeverityCritical
)

// NotifyFunc delivers an alert to the operator
type NotifyFunc func(message string)

// Alerter sends operator alerts, suppressing repeats of the same alert
// within the cooldown window.
type Alerter struct {
	mu        sync.Mutex
	notify    NotifyFunc
	cooldowns map[string]time.Time
	failing   map[string]bool
	cooldown  time.Duration
	now       func() time.Time
}

func New(notify NotifyFunc, cooldown time.Duration) *Alerter {
	return &Alerter{
		notify:    notify,
		cooldowns: make(map[string]time.Time),
		failing:   make(map[string]bool),
		cooldown:  cooldown,
		now:       time.Now,
	}
}

func (a *Alerter) Alert(severity Severity, component, message string, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	key := fmt.Sprintf("%s:%s", component, message)
	if severity >= SeverityWarn {
		a.failing[component] = true
	}

	if lastSent, ok := a.cooldowns[key]; ok {
		if a.now().Sub(lastSent) < a.cooldown {
			logger.Debug("alert suppressed (cooldown)", "component", component, "message", message)
			return
		}
	}

	var text string
	switch severity {
	case SeverityCritical:
		text = fmt.Sprintf("🚨 %s: %s", component, message)
	case SeverityWarn:
		text = fmt.Sprintf("⚠️ %s: %s", component, message)
	default:
		text = fmt.Sprintf("ℹ️ %s: %s", component, message)
	}

	if err != nil {
		text += fmt.Sprintf("\n\nError: %v", err)
	}

	if a.notify != nil {
		a.notify(text)
		a.cooldowns[key] = a.now()
		logger.Info("alert sent", "component", component, "severity", severity)
	}
}

func (a *Alerter) Critical(component, message string, err error) {
	a.Alert(SeverityCritical, component, message, err)
}

func (a *Alerter) Warn(component, message string, err error) {
	a.Alert(SeverityWarn, component, message, err)
}

// Resolve reports that a component which alerted earlier works again. It
// clears the component's cooldowns so a fresh failure alerts immediately.
func (a *Alerter) Resolve(component string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.failing[component] {
		return
	}
	delete(a.failing, component)

	prefix := component + ":"
	for key := range a.cooldowns {
		if strings.HasPrefix(key, prefix) {
			delete(a.cooldowns, key)
		}
	}

	if a.notify != nil {
		a.notify(fmt.Sprintf("✅ %s: recovered", component))
		logger.Info("alert resolved", "component", component)
	}
}
