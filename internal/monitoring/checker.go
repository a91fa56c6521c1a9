package monitoring

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/wine-cli/internal/config"
)

const defaultCheckInterval = 5 * time.Minute

// Checker evaluates scrape-run health on a fixed interval while the
// dashboard server is up.
type Checker struct {
	collector *Collector
	alerter   *Alerter
	cfg       config.MonitoringConfig
	log       *zap.Logger
}

// NewChecker wires a collector and alerter under the monitoring settings.
func NewChecker(collector *Collector, alerter *Alerter, cfg config.MonitoringConfig) *Checker {
	return &Checker{
		collector: collector,
		alerter:   alerter,
		cfg:       cfg,
		log:       zap.L().Named("run_health"),
	}
}

func (c *Checker) interval() time.Duration {
	if c.cfg.CheckIntervalSecs <= 0 {
		return defaultCheckInterval
	}
	return time.Duration(c.cfg.CheckIntervalSecs) * time.Second
}

// Run checks run health every interval until ctx ends.
func (c *Checker) Run(ctx context.Context) {
	every := c.interval()
	c.log.Info("run health checks scheduled",
		zap.Duration("every", every),
		zap.Int("window_hours", c.cfg.LookbackWindowHours),
	)

	tick := time.NewTicker(every)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			c.log.Info("run health checks stopped")
			return
		case <-tick.C:
			c.Check(ctx)
		}
	}
}

// Check takes one snapshot of the run ledger and posts any alerts it
// raises. A ledger read failure is logged and yields a nil snapshot.
func (c *Checker) Check(ctx context.Context) (*MetricsSnapshot, []Alert) {
	snap, err := c.collector.Collect(ctx, c.cfg.LookbackWindowHours)
	if err != nil {
		c.log.Error("read run ledger", zap.Error(err))
		return nil, nil
	}

	alerts := c.alerter.Evaluate(snap)
	if len(alerts) == 0 {
		c.log.Debug("runs healthy",
			zap.Int("runs", snap.RunsTotal),
			zap.Float64("skip_rate", snap.SkipRate),
		)
		return snap, nil
	}

	sent := c.alerter.SendAlerts(ctx, alerts)
	c.log.Warn("run health degraded",
		zap.Int("alerts", len(alerts)),
		zap.Int("delivered", sent),
		zap.Float64("fail_rate", snap.FailRate),
		zap.Float64("skip_rate", snap.SkipRate),
	)
	return snap, alerts
}
