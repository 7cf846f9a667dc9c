// Package quality watches teacher/student comparison pairs for drift and
// automatically stops routing student traffic for intents whose answers are
// degrading.
package quality

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/concierge-core/gateway/internal/gateway/model"
	logx "github.com/concierge-core/gateway/pkg/logger"
)

// trackedIntents are audited every cycle.
var trackedIntents = []model.Intent{
	model.IntentFAQ,
	model.IntentQuote,
	model.IntentBooking,
	model.IntentMenu,
	model.IntentHours,
	model.IntentSupport,
}

type Monitor struct {
	store  model.ComparisonStore
	splits model.SplitStore
	cfg    model.QualityConfig
	log    zerolog.Logger

	mu        sync.Mutex
	alerts    []model.QualityAlert
	rollbacks []model.RollbackRecord
}

func NewMonitor(store model.ComparisonStore, splits model.SplitStore, cfg model.QualityConfig) *Monitor {
	m := &Monitor{
		store:  store,
		splits: splits,
		cfg:    cfg,
		log:    logx.Component("quality"),
	}
	return m
}

// CheckQuality runs one audit cycle: for every tracked intent, compare recent
// averages against the trailing baseline. Empty windows are skipped, never
// alerted on. A critical similarity degradation triggers rollback.
func (m *Monitor) CheckQuality(ctx context.Context) ([]model.QualityAlert, error) {
	now := time.Now().UTC()
	baselineSince := now.Add(-time.Duration(m.cfg.BaselineDays) * 24 * time.Hour)
	recentSince := now.Add(-time.Duration(m.cfg.RecentHours) * time.Hour)

	var cycle []model.QualityAlert
	for _, intent := range trackedIntents {
		baseline, recent, ok := m.windows(ctx, intent, baselineSince, recentSince, now)
		if !ok {
			continue
		}

		if alert := m.checkSimilarity(intent, baseline, recent, now); alert != nil {
			cycle = append(cycle, *alert)
			if alert.Severity == model.SeverityCritical {
				if err := m.Rollback(ctx, intent, alert.Message); err != nil {
					m.log.Error().Err(err).Str("intent", intent.String()).Msg("rollback failed")
				}
			}
		}
		if alert := m.checkLatency(intent, baseline, recent, now); alert != nil {
			cycle = append(cycle, *alert)
		}
	}

	m.append(cycle)
	return cycle, nil
}

// windows fetches baseline and recent aggregates. A provider timeout or an
// empty window means "nothing to report" for this intent, not an error.
func (m *Monitor) windows(ctx context.Context, intent model.Intent, baselineSince, recentSince, now time.Time) (baseline, recent *model.WindowStats, ok bool) {
	qctx, cancel := context.WithTimeout(ctx, time.Duration(m.cfg.QueryTimeoutSeconds)*time.Second)
	defer cancel()

	baseline, err := m.store.WindowStats(qctx, intent, baselineSince, now)
	if err != nil {
		m.log.Warn().Err(err).Str("intent", intent.String()).Msg("baseline window unavailable, skipping")
		return nil, nil, false
	}
	recent, err = m.store.WindowStats(qctx, intent, recentSince, now)
	if err != nil {
		m.log.Warn().Err(err).Str("intent", intent.String()).Msg("recent window unavailable, skipping")
		return nil, nil, false
	}
	if baseline.AvgSimilarity == 0 || recent.AvgSimilarity == 0 {
		return nil, nil, false
	}
	return baseline, recent, true
}

func (m *Monitor) checkSimilarity(intent model.Intent, baseline, recent *model.WindowStats, now time.Time) *model.QualityAlert {
	degradation := (baseline.AvgSimilarity - recent.AvgSimilarity) / baseline.AvgSimilarity
	if degradation <= m.cfg.DegradationThreshold {
		return nil
	}
	severity := model.SeverityWarning
	if degradation > m.cfg.CriticalDegradation {
		severity = model.SeverityCritical
	}
	return &model.QualityAlert{
		Severity:      severity,
		Intent:        intent,
		Metric:        "similarity_degradation",
		CurrentValue:  recent.AvgSimilarity,
		ExpectedValue: baseline.AvgSimilarity,
		Message: fmt.Sprintf("student similarity for %s degraded %.1f%% vs 30d baseline (%.3f -> %.3f)",
			intent, degradation*100, baseline.AvgSimilarity, recent.AvgSimilarity),
		Timestamp: now,
	}
}

// checkLatency flags a student slowdown. Time regression alone is never
// critical; only similarity loss can trigger rollback.
func (m *Monitor) checkLatency(intent model.Intent, baseline, recent *model.WindowStats, now time.Time) *model.QualityAlert {
	if baseline.AvgStudentMs == 0 || recent.AvgStudentMs == 0 {
		return nil
	}
	regression := (recent.AvgStudentMs - baseline.AvgStudentMs) / baseline.AvgStudentMs
	if regression <= m.cfg.LatencyRegression {
		return nil
	}
	return &model.QualityAlert{
		Severity:      model.SeverityWarning,
		Intent:        intent,
		Metric:        "response_time_regression",
		CurrentValue:  recent.AvgStudentMs,
		ExpectedValue: baseline.AvgStudentMs,
		Message: fmt.Sprintf("student response time for %s regressed %.0f%% vs baseline (%.0fms -> %.0fms)",
			intent, regression*100, baseline.AvgStudentMs, recent.AvgStudentMs),
		Timestamp: now,
	}
}

// Rollback zeroes the student traffic split for an intent. Idempotent: an
// already-zeroed intent is re-zeroed and the action re-recorded; the monitor
// never raises a split on its own, re-enabling is a manual operation.
func (m *Monitor) Rollback(ctx context.Context, intent model.Intent, reason string) error {
	if err := m.splits.SetSplit(ctx, intent, 0); err != nil {
		return fmt.Errorf("zero traffic split for %s: %w", intent, err)
	}
	m.log.Warn().Str("intent", intent.String()).Str("reason", reason).Msg("student traffic rolled back")

	m.mu.Lock()
	defer m.mu.Unlock()
	m.rollbacks = append(m.rollbacks, model.RollbackRecord{
		Intent:    intent,
		Reason:    reason,
		Timestamp: time.Now().UTC(),
	})
	return nil
}

// Alerts returns retained alerts, newest first, optionally filtered by
// severity and truncated to limit.
func (m *Monitor) Alerts(severity *model.AlertSeverity, limit int) []model.QualityAlert {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.QualityAlert, 0, limit)
	for i := len(m.alerts) - 1; i >= 0; i-- {
		a := m.alerts[i]
		if severity != nil && a.Severity != *severity {
			continue
		}
		out = append(out, a)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// Rollbacks returns the recorded rollback history.
func (m *Monitor) Rollbacks() []model.RollbackRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.RollbackRecord, len(m.rollbacks))
	copy(out, m.rollbacks)
	return out
}

// Comparison builds the trailing-window teacher/student report.
func (m *Monitor) Comparison(ctx context.Context, intent *model.Intent, days int) (*model.ComparisonReport, error) {
	if days <= 0 {
		days = 7
	}
	qctx, cancel := context.WithTimeout(ctx, time.Duration(m.cfg.QueryTimeoutSeconds)*time.Second)
	defer cancel()

	report, err := m.store.Report(qctx, intent, time.Now().UTC().Add(-time.Duration(days)*24*time.Hour))
	if err != nil {
		return nil, err
	}
	report.Days = days
	return report, nil
}

// Run executes the audit cycle on a fixed interval until ctx is cancelled.
// It is independent of the request path and never blocks it.
func (m *Monitor) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.log.Info().Dur("interval", interval).Msg("quality monitor started")
	for {
		select {
		case <-ctx.Done():
			m.log.Info().Msg("quality monitor stopped")
			return
		case <-ticker.C:
			if alerts, err := m.CheckQuality(ctx); err != nil {
				m.log.Error().Err(err).Msg("quality cycle failed")
			} else if len(alerts) > 0 {
				m.log.Warn().Int("alerts", len(alerts)).Msg("quality cycle raised alerts")
			}
		}
	}
}

func (m *Monitor) append(alerts []model.QualityAlert) {
	if len(alerts) == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, alerts...)
	if n := m.cfg.MaxAlerts; n > 0 && len(m.alerts) > n {
		m.alerts = m.alerts[len(m.alerts)-n:]
	}
}
