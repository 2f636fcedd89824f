package biometric

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// DefaultReason is shown when Authenticate is called with an empty reason.
const DefaultReason = "Authenticate to access your account"

const defaultPromptTimeout = 30 * time.Second

// Kind labels the sensor hardware.
type Kind string

const (
	KindTouchID     Kind = "TouchID"
	KindFaceID      Kind = "FaceID"
	KindFingerprint Kind = "Fingerprint"
	KindPasscode    Kind = "Passcode"
)

var (
	ErrNotSupported = errors.New("biometric sensor not supported")
	ErrNotEnrolled  = errors.New("no biometric enrolled")
	ErrCanceled     = errors.New("biometric prompt canceled")
	ErrFailed       = errors.New("biometric authentication failed")
)

// Sensor is the platform port.
type Sensor interface {
	Probe(ctx context.Context) (Kind, error)
	Verify(ctx context.Context, reason string) error
}

// Prompt is the engine-facing adapter.
type Prompt struct {
	sensor  Sensor
	logger  *slog.Logger
	timeout time.Duration
}

// PromptOption configures a Prompt.
type PromptOption func(*Prompt)

// WithLogger routes failure logs to l.
func WithLogger(l *slog.Logger) PromptOption {
	return func(p *Prompt) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithTimeout bounds a single Authenticate call. Non-positive values keep the default.
func WithTimeout(d time.Duration) PromptOption {
	return func(p *Prompt) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// NewPrompt wraps sensor. A nil sensor yields a prompt that is never available.
func NewPrompt(sensor Sensor, opts ...PromptOption) *Prompt {
	p := &Prompt{
		sensor:  sensor,
		logger:  slog.New(slog.DiscardHandler),
		timeout: defaultPromptTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// IsAvailable probes the sensor. Any probe failure means unavailable.
func (p *Prompt) IsAvailable(ctx context.Context) bool {
	if p == nil || p.sensor == nil {
		return false
	}
	kind, err := p.sensor.Probe(ctx)
	if err != nil {
		p.logger.DebugContext(ctx, "biometric probe failed", "error", err)
		return false
	}
	return kind != ""
}

// Authenticate presents the prompt and reports explicit success only.
// Cancellation, denial, timeouts and hardware errors all return false.
func (p *Prompt) Authenticate(ctx context.Context, reason string) bool {
	if p == nil || p.sensor == nil {
		return false
	}
	if reason == "" {
		reason = DefaultReason
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.sensor.Verify(ctx, reason); err != nil {
		p.logger.WarnContext(ctx, "biometric authentication failed", "error", err)
		return false
	}
	if ctx.Err() != nil {
		// A sensor that ignores ctx must not turn a timed-out prompt into success.
		return false
	}
	return true
}

// BiometricType returns the sensor label, or ("", false) when it cannot be determined.
func (p *Prompt) BiometricType(ctx context.Context) (string, bool) {
	if p == nil || p.sensor == nil {
		return "", false
	}
	kind, err := p.sensor.Probe(ctx)
	if err != nil || kind == "" {
		return "", false
	}
	return string(kind), true
}
