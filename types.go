package deviceauth

import (
	"io"
	"log/slog"
	"time"

	"github.com/MrEthical07/deviceauth/directory"
	"github.com/MrEthical07/deviceauth/internal/audit"
	"github.com/MrEthical07/deviceauth/internal/metrics"
	"github.com/MrEthical07/deviceauth/session"
	"github.com/MrEthical07/deviceauth/vault"
)

// User is the identity profile returned by Register, Login and RestoreSession.
type User = directory.User

// Session is the persisted device session.
type Session = session.Session

// Credentials is the identifier/secret pair kept in the vault.
type Credentials = vault.Credentials

// AuditEvent is one security-relevant event.
type AuditEvent = audit.Event

// AuditStats is a point-in-time view of audit delivery.
type AuditStats = audit.Stats

// AuditSink receives audit events from the dispatcher.
type AuditSink = audit.Sink

// NoOpSink drops audit events.
type NoOpSink = audit.NoOpSink

// ChannelSink buffers audit events in a channel.
type ChannelSink = audit.ChannelSink

// JSONWriterSink writes audit events as JSON lines.
type JSONWriterSink = audit.JSONWriterSink

// SlogSink writes audit events to a structured logger.
type SlogSink = audit.SlogSink

// NewChannelSink returns a ChannelSink with the given buffer size.
func NewChannelSink(buffer int) *ChannelSink {
	return audit.NewChannelSink(buffer)
}

// NewJSONWriterSink returns a sink writing one JSON object per line to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}

// NewSlogSink returns a sink logging each event through logger.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	return audit.NewSlogSink(logger)
}

// MetricID defines a public type used by deviceauth APIs.
type MetricID = metrics.ID

// MetricsSnapshot defines a public type used by deviceauth APIs.
type MetricsSnapshot = metrics.Snapshot

const (
	MetricRegisterSuccess   = metrics.RegisterSuccess
	MetricRegisterDuplicate = metrics.RegisterDuplicate
	MetricRegisterFailure   = metrics.RegisterFailure
	MetricLoginSuccess      = metrics.LoginSuccess
	MetricLoginFailure      = metrics.LoginFailure
	MetricLoginLocked       = metrics.LoginLocked
	MetricLockoutTriggered  = metrics.LockoutTriggered
	MetricLockoutExpired    = metrics.LockoutExpired
	MetricSessionCreated    = metrics.SessionCreated
	MetricSessionRestored   = metrics.SessionRestored
	MetricSessionExpired    = metrics.SessionExpired
	MetricLogout            = metrics.Logout
	MetricBiometricSuccess  = metrics.BiometricSuccess
	MetricBiometricFailure  = metrics.BiometricFailure
	MetricLoginLatency      = metrics.LoginLatency
)

// Clock supplies the current time. Tests inject a fake through Builder.WithClock.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now returns f().
func (f ClockFunc) Now() time.Time { return f() }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// FailureReason tags an unsuccessful LoginResult.
type FailureReason string

const (
	// ReasonNone is set on successful results.
	ReasonNone FailureReason = ""
	// ReasonInvalidCredentials marks an unknown identifier or wrong password.
	ReasonInvalidCredentials FailureReason = "invalid_credentials"
	// ReasonLocked marks an attempt made while a lockout is active. No attempt is consumed.
	ReasonLocked FailureReason = "locked"
	// ReasonLockoutTriggered marks the failed attempt that started a lockout.
	ReasonLockoutTriggered FailureReason = "lockout_triggered"
)

// LoginResult defines a public type used by deviceauth APIs.
//
// Expected outcomes (bad password, unknown identifier, lockout) are reported
// here with Success=false; Login's error return is reserved for persistence
// faults.
type LoginResult struct {
	Success           bool
	User              *User
	Error             string
	Reason            FailureReason
	RemainingAttempts int
	RemainingMinutes  int
}

// LockoutStatus is the read-only lockout projection returned by CheckLockoutStatus.
type LockoutStatus struct {
	IsLocked         bool
	RemainingMinutes int
}

// RegistrationData is the full registration form submission.
type RegistrationData struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	Username        string `json:"username"`
	PhoneNumber     string `json:"phoneNumber"`
	Country         string `json:"country"`
	DateOfBirth     string `json:"dateOfBirth"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	AgreeToTerms    bool   `json:"agreeToTerms"`
}

// Draft returns the non-secret part of d.
func (d RegistrationData) Draft() RegistrationDraft {
	return RegistrationDraft{
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		Email:        d.Email,
		Username:     d.Username,
		PhoneNumber:  d.PhoneNumber,
		Country:      d.Country,
		DateOfBirth:  d.DateOfBirth,
		AgreeToTerms: d.AgreeToTerms,
	}
}

// RegistrationDraft is a partially completed registration form. Passwords are
// never part of a draft.
type RegistrationDraft struct {
	FirstName    string `json:"firstName,omitempty"`
	LastName     string `json:"lastName,omitempty"`
	Email        string `json:"email,omitempty"`
	Username     string `json:"username,omitempty"`
	PhoneNumber  string `json:"phoneNumber,omitempty"`
	Country      string `json:"country,omitempty"`
	DateOfBirth  string `json:"dateOfBirth,omitempty"`
	AgreeToTerms bool   `json:"agreeToTerms,omitempty"`
}

// ThemeMode is the persisted UI theme preference.
type ThemeMode string

const (
	ThemeLight ThemeMode = "light"
	ThemeDark  ThemeMode = "dark"
)

// Valid reports whether m is a known theme.
func (m ThemeMode) Valid() bool {
	return m == ThemeLight || m == ThemeDark
}
