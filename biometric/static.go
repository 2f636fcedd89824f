package biometric

import (
	"context"
	"sync"
)

// Static is a scripted Sensor. Set ProbeErr or VerifyErr to simulate failures.
type Static struct {
	Kind      Kind
	ProbeErr  error
	VerifyErr error

	mu      sync.Mutex
	reasons []string
}

func (s *Static) Probe(ctx context.Context) (Kind, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.ProbeErr != nil {
		return "", s.ProbeErr
	}
	return s.Kind, nil
}

func (s *Static) Verify(ctx context.Context, reason string) error {
	s.mu.Lock()
	s.reasons = append(s.reasons, reason)
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return s.VerifyErr
}

// Reasons returns the prompt texts seen so far.
func (s *Static) Reasons() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.reasons...)
}
