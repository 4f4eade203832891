package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/university-api/pkg/logger"
	"github.com/jwalitptl/university-api/pkg/messaging"
	"github.com/jwalitptl/university-api/pkg/metrics"
)

const DefaultPollInterval = 15 * time.Second

type QueueMonitorConfig struct {
	Queue        string
	PollInterval time.Duration
	// Depth above which a warning is logged on every sample. Zero disables it.
	WarnDepth int64
}

// QueueMonitor samples the notification queue depth into a gauge. Nobody
// may be polling the dashboard, so a growing backlog is otherwise invisible.
type QueueMonitor struct {
	transport messaging.Transport
	config    QueueMonitorConfig
	logger    *logger.Logger
	metrics   *metrics.Metrics
}

func NewQueueMonitor(
	transport messaging.Transport,
	config QueueMonitorConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *QueueMonitor {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}

	return &QueueMonitor{
		transport: transport,
		config:    config,
		logger:    logger,
		metrics:   metrics,
	}
}

// Start blocks until ctx is done. It returns at once when the transport
// cannot report its depth.
func (m *QueueMonitor) Start(ctx context.Context) {
	if _, ok := m.transport.(messaging.Depther); !ok {
		m.logger.Debug("queue monitor disabled", "queue", m.config.Queue)
		return
	}

	ticker := time.NewTicker(m.config.PollInterval)
	defer ticker.Stop()

	m.logger.Info("Starting queue monitor", "queue", m.config.Queue)

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Shutting down queue monitor")
			return
		case <-ticker.C:
			if _, err := m.Sample(ctx); err != nil {
				m.logger.Error(err, "Failed to sample queue depth")
			}
		}
	}
}

// Sample reads the current depth once and publishes it.
func (m *QueueMonitor) Sample(ctx context.Context) (int64, error) {
	d, ok := m.transport.(messaging.Depther)
	if !ok {
		return 0, nil
	}

	depth, err := d.Depth(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read depth of %s: %w", m.config.Queue, err)
	}

	m.metrics.QueueDepth.Set(float64(depth))
	if m.config.WarnDepth > 0 && depth > m.config.WarnDepth {
		m.logger.Warn(nil, "notification backlog is growing", "queue", m.config.Queue, "depth", depth)
	}
	return depth, nil
}
