package deviceauth

import (
	"fmt"
	"strings"
	"time"
)

// LintWarning is one advisory finding about a valid but questionable Config.
type LintWarning struct {
	Code    string
	Message string
}

// LintResult is the ordered list of warnings returned by Config.Lint.
type LintResult []LintWarning

// Codes returns the warning codes in order.
func (r LintResult) Codes() []string {
	codes := make([]string, 0, len(r))
	for _, w := range r {
		codes = append(codes, w.Code)
	}
	return codes
}

// Lint reports settings that pass Validate but weaken the device's posture.
func (c *Config) Lint() LintResult {
	var out LintResult
	add := func(code, format string, args ...any) {
		out = append(out, LintWarning{Code: code, Message: fmt.Sprintf(format, args...)})
	}

	if c.Lockout.MaxAttempts > 10 {
		add("lockout_attempts_high", "Lockout MaxAttempts %d allows a long guessing run before lockout", c.Lockout.MaxAttempts)
	}
	if c.Lockout.Duration < time.Minute {
		add("lockout_duration_short", "Lockout Duration %s barely slows guessing", c.Lockout.Duration)
	}
	if c.Session.TTL > 7*24*time.Hour {
		add("session_ttl_long", "Session TTL %s keeps devices signed in for over a week", c.Session.TTL)
	}
	if strings.EqualFold(c.Session.SigningMethod, "hs256") {
		add("session_hs256", "hs256 session tokens share one key for signing and verification")
	}
	if !c.Registration.EnforceFormat {
		add("registration_format_unchecked", "Register accepts any field format; the form layer must validate")
	}
	if !c.Audit.Enabled {
		add("audit_disabled", "audit events are not recorded")
	}
	if c.Vault.SaveOnLogin {
		add("vault_saves_password", "successful logins store the plaintext password in the credential vault")
	}

	return out
}
