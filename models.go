package userdesk

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the identity record.
type User struct {
	bun.BaseModel      `bun:"table:users,alias:usr"`
	ID                 uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Username           string     `bun:"username,notnull" json:"username,omitempty"`
	NormalizedUsername string     `bun:"normalized_username,notnull,unique" json:"-"`
	Fullname           string     `bun:"fullname" json:"fullname,omitempty"`
	Email              string     `bun:"email" json:"email,omitempty"`
	EmailVerified      bool       `bun:"email_verified" json:"email_verified"`
	Phone              string     `bun:"phone_number" json:"phone_number,omitempty"`
	PhoneVerified      bool       `bun:"phone_number_verified" json:"phone_number_verified"`
	Address            string     `bun:"address" json:"address,omitempty"`
	Status             UserStatus `bun:"status,notnull" json:"status,omitempty"`
	Role               UserRole   `bun:"user_role,notnull" json:"user_role,omitempty"`
	AgreedToTerms      bool       `bun:"agreed_to_terms" json:"agreed_to_terms"`
	HashedPassword     string     `bun:"hashed_password,notnull,default:''" json:"-"`
	CreatedAt          *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt          *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`

	VerificationCodes []*EmailVerificationCode `bun:"rel:has-many,join:id=user_id" json:"-"`
	Sessions          []*Session               `bun:"rel:has-many,join:id=user_id" json:"-"`
}

// NormalizeUsername builds the uniqueness key used for case-insensitive
// username lookups.
func NormalizeUsername(username string) string {
	return strings.ToUpper(strings.TrimSpace(username))
}

// EnsureStatus sets the default status when none was provided
func (u *User) EnsureStatus() {
	if u.Status == "" {
		u.Status = UserStatusPending
	}
}

// EnsureRole sets the default role when none was provided
func (u *User) EnsureRole() {
	if u.Role == "" {
		u.Role = RoleUser
	}
}

// Normalize fills derived and defaulted fields prior to persistence.
func (u *User) Normalize() {
	if u.NormalizedUsername == "" {
		u.NormalizedUsername = NormalizeUsername(u.Username)
	}
	u.EnsureStatus()
	u.EnsureRole()
}

// IsActive reports whether the account may authenticate
func (u *User) IsActive() bool { return u.Status == UserStatusActive }

// IsPending reports whether the account awaits verification
func (u *User) IsPending() bool { return u.Status == UserStatusPending }

// IsDeleted reports whether the account is soft deleted
func (u *User) IsDeleted() bool { return u.Status == UserStatusDeleted }

// IsRoot reports whether the account carries the administrative role
func (u *User) IsRoot() bool { return u.Role == RoleRoot }

// EmailVerificationCode is a short lived, single use proof of control over a
// registration identifier. Codes are consumed, deleted, in the same
// transaction that marks the owner verified.
type EmailVerificationCode struct {
	bun.BaseModel `bun:"table:email_verification_codes,alias:evc"`
	ID            int64      `bun:"id,pk,autoincrement" json:"id,omitempty"`
	Code          string     `bun:"code,notnull" json:"-"`
	ExpiresAt     time.Time  `bun:"expires_at,notnull" json:"expires_at,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	User          *User      `bun:"rel:belongs-to,join:user_id=id" json:"-"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// Expired reports whether the code is past its expiration instant.
func (c *EmailVerificationCode) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// Session is the server side record proving a user has authenticated. Its ID
// is the opaque token stored verbatim in the session cookie.
type Session struct {
	bun.BaseModel `bun:"table:sessions,alias:ses"`
	ID            string    `bun:"id,pk" json:"id,omitempty"`
	UserID        uuid.UUID `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	ExpiresAt     time.Time `bun:"expires_at,notnull" json:"expires_at,omitempty"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at,omitempty"`
	Fresh         bool      `bun:"fresh,notnull" json:"fresh"`
	User          *User     `bun:"rel:belongs-to,join:user_id=id" json:"-"`
}

// Expired reports whether now falls outside the session validity window.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
