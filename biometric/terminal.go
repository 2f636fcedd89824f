package biometric

import (
	"context"
	"crypto/subtle"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// TerminalSensor confirms presence by asking for the device passcode on an
// interactive terminal. It stands in for a hardware sensor on desktop builds.
type TerminalSensor struct {
	in       *os.File
	out      io.Writer
	passcode []byte
}

// NewTerminalSensor reads from in (usually os.Stdin) and writes prompts to out.
func NewTerminalSensor(in *os.File, out io.Writer, passcode string) *TerminalSensor {
	return &TerminalSensor{in: in, out: out, passcode: []byte(passcode)}
}

func (t *TerminalSensor) Probe(ctx context.Context) (Kind, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if t.in == nil || !term.IsTerminal(int(t.in.Fd())) {
		return "", ErrNotSupported
	}
	if len(t.passcode) == 0 {
		return "", ErrNotEnrolled
	}
	return KindPasscode, nil
}

// Verify blocks on terminal input. When ctx ends first the pending read is
// abandoned and the prompt reports cancellation.
func (t *TerminalSensor) Verify(ctx context.Context, reason string) error {
	if _, err := t.Probe(ctx); err != nil {
		return err
	}
	fmt.Fprintf(t.out, "%s\nDevice passcode (empty to cancel): ", reason)

	type result struct {
		input []byte
		err   error
	}
	done := make(chan result, 1)
	go func() {
		input, err := term.ReadPassword(int(t.in.Fd()))
		done <- result{input: input, err: err}
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(t.out)
		return fmt.Errorf("%w: %v", ErrCanceled, ctx.Err())
	case r := <-done:
		fmt.Fprintln(t.out)
		if r.err != nil {
			return fmt.Errorf("%w: %v", ErrFailed, r.err)
		}
		if len(r.input) == 0 {
			return ErrCanceled
		}
		if subtle.ConstantTimeCompare(r.input, t.passcode) != 1 {
			return ErrFailed
		}
		return nil
	}
}
