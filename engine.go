package deviceauth

import (
	"context"
	"log/slog"
	"sync"

	"github.com/MrEthical07/deviceauth/biometric"
	"github.com/MrEthical07/deviceauth/directory"
	"github.com/MrEthical07/deviceauth/internal/audit"
	"github.com/MrEthical07/deviceauth/internal/limiters"
	"github.com/MrEthical07/deviceauth/internal/metrics"
	"github.com/MrEthical07/deviceauth/jwt"
	"github.com/MrEthical07/deviceauth/kv"
	"github.com/MrEthical07/deviceauth/session"
	"github.com/MrEthical07/deviceauth/vault"
)

// Engine defines a public type used by deviceauth APIs.
//
// Engine methods are safe for concurrent use. Login, RestoreSession, Logout
// and BiometricLogin serialize on one mutex so the attempt counter, the
// lockout deadline and the session record always change together.
type Engine struct {
	config    Config
	store     kv.Store
	directory directory.Directory
	vault     vault.Vault
	biometric *biometric.Prompt
	clock     Clock
	logger    *slog.Logger
	tokens    *jwt.Manager
	sessions  *session.Store
	lockout   *limiters.LockoutLimiter
	audit     *audit.Dispatcher
	metrics   *metrics.Metrics

	mu sync.Mutex
}

// Close describes the close operation and its observable behavior.
//
// Close flushes pending audit events. It does not close the injected kv store.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped describes the auditdropped operation and its observable behavior.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// AuditStats reports delivered, dropped and queued audit events.
func (e *Engine) AuditStats() AuditStats {
	if e == nil {
		return AuditStats{}
	}
	return e.audit.Stats()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot does not mutate shared global state and can be used concurrently.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() Config {
	if e == nil {
		return Config{}
	}
	return cloneConfig(e.config)
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) ready() error {
	if e == nil || e.store == nil || e.tokens == nil {
		return ErrEngineNotReady
	}
	return nil
}

func (e *Engine) warn(ctx context.Context, msg string, err error, attrs ...any) {
	e.logger.WarnContext(ctx, msg, append(attrs, "error", err)...)
}
