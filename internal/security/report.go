package security

import "time"

// Report is the derived security posture of one engine configuration.
type Report struct {
	MaxAttempts         int
	LockoutDuration     time.Duration
	SessionTTL          time.Duration
	SigningAlgorithm    string
	AsymmetricSigning   bool
	RegistrationFormat  bool
	SavesCredentials    bool
	BiometricConfigured bool
	AuditEnabled        bool
	MetricsEnabled      bool
	// GuessesPerDay bounds online guessing: MaxAttempts per lockout window.
	GuessesPerDay int
	LintCodes     []string
}

type ReportInput struct {
	MaxAttempts         int
	LockoutDuration     time.Duration
	SessionTTL          time.Duration
	SigningAlgorithm    string
	EnforceFormat       bool
	SaveOnLogin         bool
	BiometricConfigured bool
	AuditEnabled        bool
	MetricsEnabled      bool
	LintCodes           []string
}

func BuildReport(input ReportInput) Report {
	guesses := 0
	if input.MaxAttempts > 0 && input.LockoutDuration > 0 {
		windows := int((24*time.Hour + input.LockoutDuration - 1) / input.LockoutDuration)
		guesses = input.MaxAttempts * windows
	}

	var lint []string
	if len(input.LintCodes) > 0 {
		lint = append([]string(nil), input.LintCodes...)
	}

	return Report{
		MaxAttempts:         input.MaxAttempts,
		LockoutDuration:     input.LockoutDuration,
		SessionTTL:          input.SessionTTL,
		SigningAlgorithm:    input.SigningAlgorithm,
		AsymmetricSigning:   input.SigningAlgorithm == "ed25519",
		RegistrationFormat:  input.EnforceFormat,
		SavesCredentials:    input.SaveOnLogin,
		BiometricConfigured: input.BiometricConfigured,
		AuditEnabled:        input.AuditEnabled,
		MetricsEnabled:      input.MetricsEnabled,
		GuessesPerDay:       guesses,
		LintCodes:           lint,
	}
}
