package agent

import (
	"context"
	"fmt"

	"github.com/bowerhall/codegene/internal/alerts"
	"github.com/bowerhall/codegene/internal/llm"
	"github.com/bowerhall/codegene/internal/logger"
	"github.com/robfig/cron/v3"
)

// Heartbeat periodically checks that the model backend answers
type Heartbeat struct {
	llm    llm.LLM
	alerts *alerts.Alerter
	cron   *cron.Cron
}

func NewHeartbeat(model llm.LLM, alerter *alerts.Alerter) *Heartbeat {
	return &Heartbeat{
		llm:    model,
		alerts: alerter,
		cron:   cron.New(),
	}
}

// Start schedules Check using a cron spec such as "@every 5m"
func (h *Heartbeat) Start(ctx context.Context, schedule string) error {
	_, err := h.cron.AddFunc(schedule, func() {
		h.Check(ctx)
	})
	if err != nil {
		return fmt.Errorf("invalid heartbeat schedule %q: %w", schedule, err)
	}

	h.cron.Start()
	logger.Info("heartbeat started", "schedule", schedule)
	return nil
}

func (h *Heartbeat) Stop() {
	<-h.cron.Stop().Done()
}

// Check pings the backend once and reports the outcome to the alerter
func (h *Heartbeat) Check(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := h.llm.Ping(pingCtx); err != nil {
		logger.Warn("heartbeat failed", "error", err)
		h.alerts.Critical(backendComponent, "backend unreachable", err)
		return err
	}

	logger.Debug("heartbeat ok")
	h.alerts.Resolve(backendComponent)
	return nil
}
