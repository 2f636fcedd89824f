package deviceauth

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/deviceauth/kv"
)

// SaveRegistrationDraft stores a partially completed registration form.
func (e *Engine) SaveRegistrationDraft(ctx context.Context, draft RegistrationDraft) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := kv.SetJSON(ctx, e.store, e.config.key(keyRegistrationDraft), draft); err != nil {
		return fmt.Errorf("%w: %v", ErrPreferencePersistFailed, err)
	}
	return nil
}

// RegistrationDraft returns the stored draft. It returns (nil, nil) when none
// is stored or the stored draft cannot be read.
func (e *Engine) RegistrationDraft(ctx context.Context) (*RegistrationDraft, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	var draft RegistrationDraft
	if err := kv.GetJSON(ctx, e.store, e.config.key(keyRegistrationDraft), &draft); err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			e.warn(ctx, "registration draft unreadable", err)
		}
		return nil, nil
	}
	return &draft, nil
}

// ClearRegistrationDraft removes the stored draft.
func (e *Engine) ClearRegistrationDraft(ctx context.Context) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.store.Delete(ctx, e.config.key(keyRegistrationDraft)); err != nil {
		return fmt.Errorf("%w: %v", ErrPreferencePersistFailed, err)
	}
	return nil
}

// SetThemeMode persists the UI theme. Only ThemeLight and ThemeDark are accepted.
func (e *Engine) SetThemeMode(ctx context.Context, mode ThemeMode) error {
	if err := e.ready(); err != nil {
		return err
	}
	if !mode.Valid() {
		return ErrInvalidThemeMode
	}
	if err := e.store.Set(ctx, e.config.key(keyThemeMode), []byte(mode)); err != nil {
		return fmt.Errorf("%w: %v", ErrPreferencePersistFailed, err)
	}
	return nil
}

// ThemeMode returns the stored theme. ok is false when none is stored or the
// stored value is unreadable or unknown.
func (e *Engine) ThemeMode(ctx context.Context) (ThemeMode, bool) {
	if e.ready() != nil {
		return "", false
	}
	raw, err := e.store.Get(ctx, e.config.key(keyThemeMode))
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			e.warn(ctx, "theme mode unreadable", err)
		}
		return "", false
	}
	mode := ThemeMode(raw)
	if !mode.Valid() {
		return "", false
	}
	return mode, true
}
