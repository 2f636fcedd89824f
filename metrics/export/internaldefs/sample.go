package internaldefs

import (
	"context"

	"github.com/MrEthical07/deviceauth"
)

// Source is the read-only engine surface both exporters scrape.
type Source interface {
	MetricsSnapshot() deviceauth.MetricsSnapshot
	AuditStats() deviceauth.AuditStats
	CheckLockoutStatus(ctx context.Context) deviceauth.LockoutStatus
	FailedAttempts(ctx context.Context) int
}

// GaugeDef names one device-state gauge.
type GaugeDef struct {
	Name string
	Help string
}

// Gauge names, in render order.
const (
	GaugeLockoutActive    = "deviceauth_lockout_active"
	GaugeLockoutRemaining = "deviceauth_lockout_remaining_minutes"
	GaugeFailedAttempts   = "deviceauth_failed_attempts"
	GaugeAuditPending     = "deviceauth_audit_pending"
)

// GaugeDefs lists the device-state gauges read at scrape time.
var GaugeDefs = []GaugeDef{
	{Name: GaugeLockoutActive, Help: "1 while the device is locked out, else 0."},
	{Name: GaugeLockoutRemaining, Help: "Whole minutes until the current lockout ends."},
	{Name: GaugeFailedAttempts, Help: "Failed login attempts recorded since the last success or expiry."},
	{Name: GaugeAuditPending, Help: "Audit events queued but not yet delivered."},
}

// Audit counter names.
const (
	CounterAuditDelivered = "deviceauth_audit_delivered_total"
	CounterAuditDropped   = "deviceauth_audit_dropped_total"
)

// AuditCounterDefs lists dispatcher counters exported after the engine counters.
var AuditCounterDefs = []GaugeDef{
	{Name: CounterAuditDelivered, Help: "Audit events handed to the sink."},
	{Name: CounterAuditDropped, Help: "Audit events dropped on a full buffer, a cancelled caller or after close."},
}

// Point is one named value.
type Point struct {
	Name  string
	Help  string
	Value int64
}

// HistogramPoint carries cumulative bucket counts aligned with HistogramBounds.
type HistogramPoint struct {
	Name       string
	Help       string
	Cumulative [8]uint64
}

// Sample is everything one scrape reports.
type Sample struct {
	// Enabled is false when the engine runs with metrics off; exporters then
	// report nothing.
	Enabled    bool
	Counters   []Point
	Gauges     []Point
	Histograms []HistogramPoint
}

// Collect reads src once and arranges the values in render order.
func Collect(ctx context.Context, src Source) Sample {
	snapshot := src.MetricsSnapshot()
	s := Sample{Enabled: len(snapshot.Counters) > 0 || len(snapshot.Histograms) > 0}
	if !s.Enabled {
		return s
	}

	s.Counters = make([]Point, 0, len(CounterDefs)+len(AuditCounterDefs))
	for _, def := range CounterDefs {
		s.Counters = append(s.Counters, Point{Name: def.Name, Help: def.Help, Value: int64(snapshot.Counters[def.ID])})
	}
	stats := src.AuditStats()
	s.Counters = append(s.Counters,
		Point{Name: CounterAuditDelivered, Help: AuditCounterDefs[0].Help, Value: int64(stats.Delivered)},
		Point{Name: CounterAuditDropped, Help: AuditCounterDefs[1].Help, Value: int64(stats.Dropped)},
	)

	for _, def := range HistogramDefs {
		s.Histograms = append(s.Histograms, HistogramPoint{
			Name:       def.Name,
			Help:       def.Help,
			Cumulative: CumulativeBuckets(NormalizeBuckets(snapshot.Histograms[def.ID])),
		})
	}

	status := src.CheckLockoutStatus(ctx)
	var active int64
	if status.IsLocked {
		active = 1
	}
	values := map[string]int64{
		GaugeLockoutActive:    active,
		GaugeLockoutRemaining: int64(status.RemainingMinutes),
		GaugeFailedAttempts:   int64(src.FailedAttempts(ctx)),
		GaugeAuditPending:     int64(stats.Pending),
	}
	for _, def := range GaugeDefs {
		s.Gauges = append(s.Gauges, Point{Name: def.Name, Help: def.Help, Value: values[def.Name]})
	}
	return s
}
