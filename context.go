package deviceauth

import "context"

type originContextKey struct{}

const (
	// OriginForm marks credentials typed into the login form.
	OriginForm = "form"
	// OriginBiometric marks credentials replayed from the vault after a biometric prompt.
	OriginBiometric = "biometric"
)

// WithOrigin attaches the credential origin to ctx. The Engine records it on
// audit events so biometric re-logins can be told apart from typed ones.
func WithOrigin(ctx context.Context, origin string) context.Context {
	return context.WithValue(ctx, originContextKey{}, origin)
}

func originFromContext(ctx context.Context) string {
	if ctx == nil {
		return OriginForm
	}

	origin, _ := ctx.Value(originContextKey{}).(string)
	if origin == "" {
		return OriginForm
	}
	return origin
}
