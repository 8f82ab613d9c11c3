package goAccount

import (
	internalaudit "github.com/MrEthical07/goAccount/internal/audit"
	"github.com/MrEthical07/goAccount/internal/rate"
	"github.com/MrEthical07/goAccount/password"
)

// Engine resolves local and federated logins to accounts. Create one with
// Builder.Build; the zero value is not usable.
type Engine struct {
	config       Config
	accounts     AccountStore
	intents      IntentStore
	federator    Federator
	passwordHash *password.Argon2
	throttle     *rate.Limiter
	audit        *internalaudit.Dispatcher
	metrics      *Metrics
}

// Close flushes pending audit events.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() Config {
	if e == nil {
		return defaultConfig()
	}
	return cloneConfig(e.config)
}

// AuditDropped reports audit events lost to dispatcher backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a copy of the engine counters. With metrics disabled
// the maps are empty.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// FederationStatus reports provider configuration. It performs no I/O.
func (e *Engine) FederationStatus() FederationStatus {
	if e == nil || e.federator == nil {
		return FederationStatus{}
	}
	return e.federator.Status()
}

func (e *Engine) ready() bool {
	return e != nil && e.accounts != nil && e.passwordHash != nil
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}
