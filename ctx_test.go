package userdesk

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserFromContext(t *testing.T) {
	tests := []struct {
		name     string
		setupCtx func() context.Context
		wantOK   bool
	}{
		{
			name: "should return user when present in context",
			setupCtx: func() context.Context {
				return WithUser(context.Background(), &User{Username: "jhon_doe"})
			},
			wantOK: true,
		},
		{
			name: "should return false when no user in context",
			setupCtx: func() context.Context {
				return context.Background()
			},
			wantOK: false,
		},
		{
			name: "should return false when context has wrong type",
			setupCtx: func() context.Context {
				return context.WithValue(context.Background(), userCtxKey, "not-a-user")
			},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, ok := UserFromContext(tt.setupCtx())

			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, "jhon_doe", user.Username)
			} else {
				assert.Nil(t, user)
			}
		})
	}
}

func TestSessionFromContext(t *testing.T) {
	session := &Session{ID: "token"}

	ctx := WithSession(context.Background(), session)

	got, ok := SessionFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "token", got.ID)

	got, ok = SessionFromContext(context.Background())
	assert.False(t, ok)
	assert.Nil(t, got)
}
