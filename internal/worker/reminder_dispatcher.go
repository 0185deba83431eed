package worker

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

// DueProcessor sends every reminder due at now and retries earlier failures.
type DueProcessor interface {
	ProcessDue(ctx context.Context, now time.Time) []model.SendOutcome
}

type ReminderDispatcherConfig struct {
	PollInterval time.Duration
}

// ReminderDispatcher polls for due reminders and sends them. Without it
// reminders only go out through the /reminders/process endpoint.
type ReminderDispatcher struct {
	reminders DueProcessor
	config    ReminderDispatcherConfig
	logger    *logger.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewReminderDispatcher(
	reminders DueProcessor,
	config ReminderDispatcherConfig,
	log *logger.Logger,
	m *metrics.Metrics,
) *ReminderDispatcher {
	if config.PollInterval <= 0 {
		config.PollInterval = time.Minute
	}
	if log == nil {
		log = logger.Nop()
	}
	return &ReminderDispatcher{
		reminders: reminders,
		config:    config,
		logger:    log.With("reminder-dispatcher"),
		metrics:   m,
		now:       time.Now,
	}
}

// Start blocks until ctx is cancelled.
func (d *ReminderDispatcher) Start(ctx context.Context) {
	ticker := time.NewTicker(d.config.PollInterval)
	defer ticker.Stop()

	d.logger.Info("Starting reminder dispatcher", "interval", d.config.PollInterval.String())

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Shutting down reminder dispatcher")
			return
		case <-ticker.C:
			d.Dispatch(ctx)
		}
	}
}

// Dispatch runs one pass and returns how many reminders were sent and how
// many attempts failed.
func (d *ReminderDispatcher) Dispatch(ctx context.Context) (sent, failed int) {
	if d.metrics != nil {
		timer := prometheus.NewTimer(d.metrics.DispatchDuration)
		defer timer.ObserveDuration()
	}

	outcomes := d.reminders.ProcessDue(ctx, d.now())
	for _, o := range outcomes {
		if o.Success {
			sent++
			continue
		}
		failed++
		d.logger.Warn("Reminder delivery failed", "reminder_id", o.ReminderID, "error", o.Error)
	}
	if len(outcomes) > 0 {
		d.logger.Info("Dispatched due reminders", "sent", sent, "failed", failed)
	}
	return sent, failed
}
