package internaldefs

import (
	"github.com/MrEthical07/deviceauth"
)

// CounterDef names one counter slot of a deviceauth metrics snapshot.
type CounterDef struct {
	ID   deviceauth.MetricID
	Name string
	Help string
}

// HistogramDef names one histogram slot.
type HistogramDef struct {
	ID   deviceauth.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in render order.
var CounterDefs = []CounterDef{
	{ID: deviceauth.MetricRegisterSuccess, Name: "deviceauth_register_success_total", Help: "Successful registrations."},
	{ID: deviceauth.MetricRegisterDuplicate, Name: "deviceauth_register_duplicate_total", Help: "Registrations rejected because the email or username is taken."},
	{ID: deviceauth.MetricRegisterFailure, Name: "deviceauth_register_failure_total", Help: "Registrations rejected as invalid or failed on the directory."},
	{ID: deviceauth.MetricLoginSuccess, Name: "deviceauth_login_success_total", Help: "Successful login attempts."},
	{ID: deviceauth.MetricLoginFailure, Name: "deviceauth_login_failure_total", Help: "Failed login attempts."},
	{ID: deviceauth.MetricLoginLocked, Name: "deviceauth_login_locked_total", Help: "Login attempts rejected by an active lockout."},
	{ID: deviceauth.MetricLockoutTriggered, Name: "deviceauth_lockout_triggered_total", Help: "Lockouts started after too many failures."},
	{ID: deviceauth.MetricLockoutExpired, Name: "deviceauth_lockout_expired_total", Help: "Expired lockouts cleared by a login attempt."},
	{ID: deviceauth.MetricSessionCreated, Name: "deviceauth_session_created_total", Help: "Created sessions."},
	{ID: deviceauth.MetricSessionRestored, Name: "deviceauth_session_restored_total", Help: "Sessions restored at startup."},
	{ID: deviceauth.MetricSessionExpired, Name: "deviceauth_session_expired_total", Help: "Expired or unverifiable sessions removed."},
	{ID: deviceauth.MetricLogout, Name: "deviceauth_logout_total", Help: "Logout operations."},
	{ID: deviceauth.MetricBiometricSuccess, Name: "deviceauth_biometric_success_total", Help: "Accepted biometric prompts."},
	{ID: deviceauth.MetricBiometricFailure, Name: "deviceauth_biometric_failure_total", Help: "Biometric logins that did not reach the credential check."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: deviceauth.MetricLoginLatency, Name: "deviceauth_login_latency_seconds", Help: "Login latency histogram."},
}

// HistogramBounds are the upper bucket bounds in seconds, matching the engine's millisecond buckets.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is HistogramBounds in a form usable inside metric names.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed eight-bucket array, zero-filling missing buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
