package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

const pingTimeout = 5 * time.Second

// Status reports session state, backend reachability and host resources
func (a *Agent) Status(ctx context.Context) string {
	var sb strings.Builder
	chats := a.session.Chats()

	sb.WriteString("Session:\n")
	sb.WriteString(fmt.Sprintf("  Chats: %d\n", chats.Len()))
	if c, err := chats.Current(); err == nil {
		sb.WriteString(fmt.Sprintf("  Current: %s (%d messages)\n", c.Title, len(c.Messages)))
	}
	sb.WriteString(fmt.Sprintf("  Page: %s\n", a.session.Page()))
	if a.session.Processing() {
		sb.WriteString("  Turn: processing\n")
	} else {
		sb.WriteString("  Turn: idle\n")
	}
	if name, ok := a.session.PendingAttachment(); ok {
		sb.WriteString(fmt.Sprintf("  Pending image: %s\n", name))
	}
	sb.WriteString("\n")

	sb.WriteString("Model:\n")
	sb.WriteString(fmt.Sprintf("  Name: %s\n", a.settings.Model()))
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := a.llm.Ping(pingCtx); err != nil {
		sb.WriteString(fmt.Sprintf("  Backend: unreachable (%v)\n", err))
	} else {
		sb.WriteString("  Backend: ok\n")
	}
	sb.WriteString("\n")

	sb.WriteString("Host:\n")
	if percent, err := cpu.PercentWithContext(ctx, 200*time.Millisecond, false); err == nil && len(percent) > 0 {
		sb.WriteString(fmt.Sprintf("  CPU: %.1f%%\n", percent[0]))
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		sb.WriteString(fmt.Sprintf("  Memory: %s / %s (%.1f%%)\n", formatBytes(vm.Used), formatBytes(vm.Total), vm.UsedPercent))
	}
	if du, err := disk.UsageWithContext(ctx, "/"); err == nil {
		sb.WriteString(fmt.Sprintf("  Disk: %s free of %s\n", formatBytes(du.Free), formatBytes(du.Total)))
	}

	if a.exporter != nil {
		sb.WriteString("\nExports: enabled")
	} else {
		sb.WriteString("\nExports: disabled")
	}

	return sb.String()
}

func formatBytes(bytes uint64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d bytes", bytes)
	}
}
