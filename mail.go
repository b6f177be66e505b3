package userdesk

import "context"

// Mailer delivers registration verification codes. Implementations live in
// the mailer package; tests use an in-memory fake.
type Mailer interface {
	SendVerificationCode(ctx context.Context, to, fullname, code string) error
}
