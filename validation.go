package deviceauth

import (
	"regexp"
	"sort"
	"strings"
)

const (
	msgRequired         = "This field is required"
	msgEmailInvalid     = "Please enter a valid email address"
	msgPasswordWeak     = "Password must be at least 8 characters with uppercase, lowercase, number, and special character"
	msgPasswordMismatch = "Passwords do not match"
	msgPhoneInvalid     = "Please enter a valid phone number"
	msgUsernameInvalid  = "Username must be 3-20 characters and contain only letters, numbers, and underscores"
)

var (
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern    = regexp.MustCompile(`^\+?[\d\s\-()]{10,}$`)
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)
	passwordCharset = regexp.MustCompile(`^[A-Za-z\d@$!%*?&]{8,}$`)
)

const passwordSpecials = "@$!%*?&"

// ValidationErrors maps a registration field (JSON name) to a user-facing
// message. It matches ErrRegistrationInvalid under errors.Is.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var b strings.Builder
	b.WriteString(ErrRegistrationInvalid.Error())
	for i, f := range fields {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		b.WriteString(f)
		b.WriteString(": ")
		b.WriteString(v[f])
	}
	return b.String()
}

func (v ValidationErrors) Unwrap() error {
	return ErrRegistrationInvalid
}

// ValidateRegistration applies the registration form rules. It returns nil or
// a ValidationErrors value.
func ValidateRegistration(d RegistrationData) error {
	errs := ValidationErrors{}
	set := func(field, msg string) {
		if msg != "" {
			errs[field] = msg
		}
	}

	set("firstName", required(d.FirstName))
	set("lastName", required(d.LastName))
	set("country", required(d.Country))
	set("dateOfBirth", required(d.DateOfBirth))
	set("email", matchOrRequired(d.Email, emailPattern, msgEmailInvalid))
	set("username", matchOrRequired(d.Username, usernamePattern, msgUsernameInvalid))
	set("phoneNumber", matchOrRequired(d.PhoneNumber, phonePattern, msgPhoneInvalid))
	set("password", validatePassword(d.Password))

	switch {
	case d.ConfirmPassword == "":
		set("confirmPassword", msgRequired)
	case d.ConfirmPassword != d.Password:
		set("confirmPassword", msgPasswordMismatch)
	}
	if !d.AgreeToTerms {
		set("agreeToTerms", msgRequired)
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func required(v string) string {
	if v == "" {
		return msgRequired
	}
	return ""
}

func matchOrRequired(v string, re *regexp.Regexp, invalid string) string {
	if v == "" {
		return msgRequired
	}
	if !re.MatchString(v) {
		return invalid
	}
	return ""
}

func validatePassword(pw string) string {
	if pw == "" {
		return msgRequired
	}
	if !passwordCharset.MatchString(pw) ||
		!strings.ContainsAny(pw, "abcdefghijklmnopqrstuvwxyz") ||
		!strings.ContainsAny(pw, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") ||
		!strings.ContainsAny(pw, "0123456789") ||
		!strings.ContainsAny(pw, passwordSpecials) {
		return msgPasswordWeak
	}
	return ""
}

// PasswordStrength scores pw from 0 to 5 (length, lower, upper, digit,
// special) and labels it Weak (≤2), Medium (3) or Strong.
func PasswordStrength(pw string) (int, string) {
	score := 0
	if len(pw) >= 8 {
		score++
	}
	if strings.ContainsAny(pw, "abcdefghijklmnopqrstuvwxyz") {
		score++
	}
	if strings.ContainsAny(pw, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		score++
	}
	if strings.ContainsAny(pw, "0123456789") {
		score++
	}
	if strings.ContainsAny(pw, passwordSpecials) {
		score++
	}

	switch {
	case score <= 2:
		return score, "Weak"
	case score == 3:
		return score, "Medium"
	default:
		return score, "Strong"
	}
}
