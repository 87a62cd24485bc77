package workers

import (
	"casechat/contract"
	"casechat/observability"
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

// Heartbeat periodically logs process health (RSS, CPU, OS status)
// together with the chat counters, so an operator can read liveness and
// load from the log stream alone.
type Heartbeat struct {
	log        *slog.Logger
	registry   contract.IRegistry
	monitoring *observability.Monitoring
	interval   time.Duration
}

func NewHeartbeat(log *slog.Logger, registry contract.IRegistry,
	monitoring *observability.Monitoring, interval time.Duration) *Heartbeat {
	return &Heartbeat{log: log, registry: registry, monitoring: monitoring, interval: interval}
}

func (w *Heartbeat) Run(ctx context.Context) error {
	w.log.Info("Starting heartbeat worker", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			rss, cpu, status, err := selfStats(p)
			if err != nil {
				w.log.Error("Failed to collect self stats", "err", err)
				continue
			}

			active := len(w.registry.AllSinks())
			stats := w.monitoring.GetLatest(active)
			w.log.Info("Heartbeat",
				"pid", os.Getpid(),
				"status", status,
				"cpu_percent", cpu,
				"ram_bytes", rss,
				"active_connections", stats.ActiveConnections,
				"messages_routed", stats.MessagesRouted,
				"messages_delivered", stats.MessagesDelivered)
		}
	}
}

// selfStats retrieves memory, CPU, and OS status for the given process.
func selfStats(p *process.Process) (uint64, float64, string, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, "", err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, "", err
	}
	status, err := p.Status()
	if err != nil {
		return 0, 0, "", err
	}
	return memInfo.RSS, cpuPercent, status, nil
}
