package deviceauth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/deviceauth/directory"
	"github.com/google/uuid"
)

// Register describes the register operation and its observable behavior.
//
// Register creates a user reachable by both email and username. It returns
// ErrRegistrationInvalid when either identifier or the password is blank and
// ErrDuplicateIdentity when either identifier is already taken, in which case
// the directory is left unchanged. On success the registration draft is
// cleared; a failure to clear it is logged and not returned.
func (e *Engine) Register(ctx context.Context, data RegistrationData) (User, error) {
	if err := e.ready(); err != nil {
		return User{}, err
	}

	if strings.TrimSpace(data.Email) == "" ||
		strings.TrimSpace(data.Username) == "" ||
		data.Password == "" {
		e.metricInc(MetricRegisterFailure)
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", "", ErrRegistrationInvalid, nil)
		return User{}, ErrRegistrationInvalid
	}
	if e.config.Registration.EnforceFormat {
		if err := ValidateRegistration(data); err != nil {
			e.metricInc(MetricRegisterFailure)
			e.emitAudit(ctx, auditEventRegisterFailure, false, "", "", err, nil)
			return User{}, err
		}
	}

	id, err := uuid.NewV7()
	if err != nil {
		e.metricInc(MetricRegisterFailure)
		return User{}, fmt.Errorf("%w: user id: %v", ErrRegistrationUnavailable, err)
	}

	user := User{
		ID:          id.String(),
		FirstName:   data.FirstName,
		LastName:    data.LastName,
		Email:       data.Email,
		Username:    data.Username,
		PhoneNumber: data.PhoneNumber,
		Country:     data.Country,
		DateOfBirth: data.DateOfBirth,
		CreatedAt:   e.clock.Now().UTC().Truncate(time.Millisecond),
	}

	err = e.directory.Insert(ctx, directory.Record{User: user, Password: data.Password})
	switch {
	case err == nil:
	case errors.Is(err, directory.ErrDuplicate):
		e.metricInc(MetricRegisterDuplicate)
		e.emitAudit(ctx, auditEventRegisterDuplicate, false, "", "", ErrDuplicateIdentity, nil)
		return User{}, ErrDuplicateIdentity
	default:
		e.metricInc(MetricRegisterFailure)
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", "", ErrRegistrationUnavailable, nil)
		return User{}, fmt.Errorf("%w: %v", ErrRegistrationUnavailable, err)
	}

	if err := e.store.Delete(ctx, e.config.key(keyRegistrationDraft)); err != nil {
		e.warn(ctx, "registration draft clear failed", err)
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditEventRegisterSuccess, true, user.ID, "", nil, nil)

	return user, nil
}
