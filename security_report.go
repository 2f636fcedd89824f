package deviceauth

import "github.com/MrEthical07/deviceauth/internal/security"

// SecurityReport summarizes the effective security posture of an Engine.
type SecurityReport = security.Report

// SecurityReport describes the securityreport operation and its observable behavior.
func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	return security.BuildReport(security.ReportInput{
		MaxAttempts:         e.config.Lockout.MaxAttempts,
		LockoutDuration:     e.config.Lockout.Duration,
		SessionTTL:          e.config.Session.TTL,
		SigningAlgorithm:    e.config.Session.SigningMethod,
		EnforceFormat:       e.config.Registration.EnforceFormat,
		SaveOnLogin:         e.config.Vault.SaveOnLogin,
		BiometricConfigured: e.biometric != nil,
		AuditEnabled:        e.config.Audit.Enabled,
		MetricsEnabled:      e.config.Metrics.Enabled,
		LintCodes:           e.config.Lint().Codes(),
	})
}
