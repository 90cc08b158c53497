package ports

import "context"

// Mailer delivers account emails. Calls are fire-and-forget from the
// application's perspective; a send failure never fails the user-facing
// operation.
type Mailer interface {
	SendVerification(ctx context.Context, to, token string) error
	SendPasswordReset(ctx context.Context, to, token string) error
	SendWelcome(ctx context.Context, to, name string) error
}
