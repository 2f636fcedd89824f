package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/MrEthical07/deviceauth"
	"github.com/MrEthical07/deviceauth/authstate"
	"golang.org/x/term"
)

const helpText = `commands:
  register              create an account (resumes a saved draft)
  login                 sign in with email or username
  biometric             sign in with the saved credentials
  logout                sign out
  whoami                show the signed-in user
  status                show lockout state
  draft [show|clear]    inspect or discard the registration draft
  theme [light|dark]    show or set the theme
  forget                remove saved credentials
  report                show the security report
  quit                  exit`

type repl struct {
	engine   *deviceauth.Engine
	provider *authstate.Provider
	in       *bufio.Reader
	out      io.Writer

	// readSecret reads a line without echo where the terminal allows it.
	readSecret func(prompt string) (string, error)
}

func newREPL(engine *deviceauth.Engine, provider *authstate.Provider, in *bufio.Reader, out io.Writer) *repl {
	r := &repl{engine: engine, provider: provider, in: in, out: out}
	r.readSecret = r.readLine
	return r
}

// terminalSecret reads secrets with echo disabled when stdin is a terminal.
func terminalSecret(r *repl) func(string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return r.readLine
	}
	return func(prompt string) (string, error) {
		fmt.Fprint(r.out, prompt)
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(r.out)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}

func (r *repl) readLine(prompt string) (string, error) {
	fmt.Fprint(r.out, prompt)
	line, err := r.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (r *repl) run(ctx context.Context) error {
	if s := r.provider.State(); s.IsAuthenticated {
		fmt.Fprintf(r.out, "Welcome back, %s.\n", s.User.Username)
	}
	if mode, ok := r.engine.ThemeMode(ctx); ok {
		fmt.Fprintf(r.out, "Theme: %s\n", mode)
	}

	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := r.readLine("> ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if quit := r.dispatch(ctx, line); quit {
			return nil
		}
	}
}

// dispatch runs one command line and reports whether the REPL should exit.
func (r *repl) dispatch(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, args := fields[0], fields[1:]

	var err error
	switch cmd {
	case "help", "?":
		fmt.Fprintln(r.out, helpText)
	case "register":
		err = r.register(ctx)
	case "login":
		err = r.login(ctx)
	case "biometric":
		err = r.biometric(ctx)
	case "logout":
		err = r.provider.Logout(ctx)
		if err == nil {
			fmt.Fprintln(r.out, "Signed out.")
		}
	case "whoami":
		r.whoami()
	case "status":
		r.status(ctx)
	case "draft":
		err = r.draft(ctx, args)
	case "theme":
		err = r.theme(ctx, args)
	case "forget":
		err = r.engine.ForgetSavedCredentials(ctx)
		if err == nil {
			fmt.Fprintln(r.out, "Saved credentials removed.")
		}
	case "report":
		r.report()
	case "quit", "exit":
		return true
	default:
		fmt.Fprintf(r.out, "unknown command %q (try help)\n", cmd)
	}
	if err != nil {
		fmt.Fprintf(r.out, "error: %v\n", err)
	}
	return false
}

func (r *repl) register(ctx context.Context) error {
	draft, err := r.engine.RegistrationDraft(ctx)
	if err != nil {
		return err
	}
	if draft == nil {
		draft = &deviceauth.RegistrationDraft{}
	} else {
		fmt.Fprintln(r.out, "Resuming saved draft. Press Enter to keep a value.")
	}

	fields := []struct {
		label string
		value *string
	}{
		{"First name", &draft.FirstName},
		{"Last name", &draft.LastName},
		{"Email", &draft.Email},
		{"Username", &draft.Username},
		{"Phone number", &draft.PhoneNumber},
		{"Country", &draft.Country},
		{"Date of birth (YYYY-MM-DD)", &draft.DateOfBirth},
	}
	for _, f := range fields {
		prompt := f.label + ": "
		if *f.value != "" {
			prompt = fmt.Sprintf("%s [%s]: ", f.label, *f.value)
		}
		v, err := r.readLine(prompt)
		if err != nil {
			return err
		}
		if v != "" {
			*f.value = v
		}
		if err := r.engine.SaveRegistrationDraft(ctx, *draft); err != nil {
			return err
		}
	}

	password, err := r.readSecret("Password: ")
	if err != nil {
		return err
	}
	score, label := deviceauth.PasswordStrength(password)
	fmt.Fprintf(r.out, "Password strength: %s (%d/5)\n", label, score)
	confirm, err := r.readSecret("Confirm password: ")
	if err != nil {
		return err
	}
	terms, err := r.readLine("Agree to the terms? [y/N]: ")
	if err != nil {
		return err
	}
	draft.AgreeToTerms = strings.EqualFold(terms, "y") || strings.EqualFold(terms, "yes")
	if err := r.engine.SaveRegistrationDraft(ctx, *draft); err != nil {
		return err
	}

	data := deviceauth.RegistrationData{
		FirstName:       draft.FirstName,
		LastName:        draft.LastName,
		Email:           draft.Email,
		Username:        draft.Username,
		PhoneNumber:     draft.PhoneNumber,
		Country:         draft.Country,
		DateOfBirth:     draft.DateOfBirth,
		Password:        password,
		ConfirmPassword: confirm,
		AgreeToTerms:    draft.AgreeToTerms,
	}

	user, err := r.provider.Register(ctx, data)
	var verrs deviceauth.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		fmt.Fprintln(r.out, "Please fix the following (your answers are saved):")
		names := make([]string, 0, len(verrs))
		for name := range verrs {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(r.out, "  %s: %s\n", name, verrs[name])
		}
		return nil
	case errors.Is(err, deviceauth.ErrDuplicateIdentity):
		fmt.Fprintln(r.out, "That email or username is already registered.")
		return nil
	case err != nil:
		return err
	}

	fmt.Fprintf(r.out, "Welcome, %s! Your account was created.\n", user.FirstName)
	return nil
}

func (r *repl) login(ctx context.Context) error {
	if status := r.engine.CheckLockoutStatus(ctx); status.IsLocked {
		fmt.Fprintf(r.out, "Account locked. Try again in %d minute(s).\n", status.RemainingMinutes)
		return nil
	}
	identifier, err := r.readLine("Email or username: ")
	if err != nil {
		return err
	}
	password, err := r.readSecret("Password: ")
	if err != nil {
		return err
	}
	res, err := r.provider.Login(ctx, identifier, password)
	if err != nil {
		return err
	}
	r.printResult(res)
	return nil
}

func (r *repl) biometric(ctx context.Context) error {
	res, err := r.provider.BiometricLogin(ctx, "")
	switch {
	case errors.Is(err, deviceauth.ErrBiometricUnavailable):
		fmt.Fprintln(r.out, "Biometric login is not available on this device.")
		return nil
	case errors.Is(err, deviceauth.ErrNoSavedCredentials):
		fmt.Fprintln(r.out, "No saved credentials. Sign in with your password first.")
		return nil
	case errors.Is(err, deviceauth.ErrBiometricRejected):
		fmt.Fprintln(r.out, "Biometric authentication failed.")
		return nil
	case err != nil:
		return err
	}
	r.printResult(res)
	return nil
}

func (r *repl) printResult(res deviceauth.LoginResult) {
	if res.Success {
		fmt.Fprintf(r.out, "Signed in as %s.\n", res.User.Username)
		return
	}
	fmt.Fprintln(r.out, res.Error)
}

func (r *repl) whoami() {
	s := r.provider.State()
	if !s.IsAuthenticated {
		fmt.Fprintln(r.out, "Not signed in.")
		return
	}
	u := s.User
	fmt.Fprintf(r.out, "%s %s <%s> @%s\n", u.FirstName, u.LastName, u.Email, u.Username)
	fmt.Fprintf(r.out, "id: %s\nmember since: %s\n", u.ID, u.CreatedAt.Format("2006-01-02"))
}

func (r *repl) status(ctx context.Context) {
	status := r.engine.CheckLockoutStatus(ctx)
	if status.IsLocked {
		fmt.Fprintf(r.out, "Locked for %d more minute(s).\n", status.RemainingMinutes)
	} else {
		fmt.Fprintf(r.out, "Not locked. Failed attempts: %d.\n", r.engine.FailedAttempts(ctx))
	}
	if kind, ok := r.engine.BiometricType(ctx); ok {
		fmt.Fprintf(r.out, "Biometric: %s\n", kind)
	}
	fmt.Fprintf(r.out, "Saved credentials: %t\n", r.engine.HasSavedCredentials(ctx))
}

func (r *repl) draft(ctx context.Context, args []string) error {
	if len(args) > 0 && args[0] == "clear" {
		if err := r.engine.ClearRegistrationDraft(ctx); err != nil {
			return err
		}
		fmt.Fprintln(r.out, "Draft cleared.")
		return nil
	}
	d, err := r.engine.RegistrationDraft(ctx)
	if err != nil {
		return err
	}
	if d == nil {
		fmt.Fprintln(r.out, "No draft.")
		return nil
	}
	fmt.Fprintf(r.out, "name=%q %q email=%q username=%q phone=%q country=%q dob=%q terms=%t\n",
		d.FirstName, d.LastName, d.Email, d.Username, d.PhoneNumber, d.Country, d.DateOfBirth, d.AgreeToTerms)
	return nil
}

func (r *repl) theme(ctx context.Context, args []string) error {
	if len(args) == 0 {
		mode, ok := r.engine.ThemeMode(ctx)
		if !ok {
			mode = deviceauth.ThemeLight
		}
		fmt.Fprintf(r.out, "Theme: %s\n", mode)
		return nil
	}
	if err := r.engine.SetThemeMode(ctx, deviceauth.ThemeMode(args[0])); err != nil {
		return err
	}
	fmt.Fprintf(r.out, "Theme set to %s.\n", args[0])
	return nil
}

func (r *repl) report() {
	rep := r.engine.SecurityReport()
	fmt.Fprintf(r.out, "lockout: %d attempts, %s (at most %d guesses/day)\n", rep.MaxAttempts, rep.LockoutDuration, rep.GuessesPerDay)
	fmt.Fprintf(r.out, "session: %s, %s\n", rep.SessionTTL, rep.SigningAlgorithm)
	fmt.Fprintf(r.out, "format checks: %t, vault saves password: %t, biometric: %t\n",
		rep.RegistrationFormat, rep.SavesCredentials, rep.BiometricConfigured)
	fmt.Fprintf(r.out, "audit: %t, metrics: %t\n", rep.AuditEnabled, rep.MetricsEnabled)
	if len(rep.LintCodes) > 0 {
		fmt.Fprintf(r.out, "warnings: %s\n", strings.Join(rep.LintCodes, ", "))
	}
}
