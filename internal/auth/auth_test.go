package auth

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	return NewService(
		NewJWTManager("test-secret", time.Hour, "storefront"),
		[]Account{{Email: "Admin@Example.com", PasswordHash: string(hash)}},
		zerolog.Nop(),
	)
}

func TestJWTGenerateValidate(t *testing.T) {
	manager := NewJWTManager("secret", time.Hour, "issuer")
	token, claims, err := manager.Generate(&User{UID: "user-1", Email: "a@b.c"})
	require.NoError(t, err)
	require.NotEmpty(t, claims.ID)

	got, err := manager.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.Subject)
	assert.Equal(t, "a@b.c", got.Email)
}

func TestJWTGenerateInvalid(t *testing.T) {
	manager := NewJWTManager("secret", time.Hour, "issuer")
	_, _, err := manager.Generate(&User{Email: "a@b.c"})
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, _, err = manager.Generate(nil)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTValidate(t *testing.T) {
	manager := NewJWTManager("secret", time.Hour, "issuer")
	token, _, err := manager.Generate(&User{UID: "u", Email: "a@b.c"})
	require.NoError(t, err)

	_, err = manager.Validate("")
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = manager.Validate("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewJWTManager("other-secret", time.Hour, "issuer")
	_, err = other.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongIssuer := NewJWTManager("secret", time.Hour, "someone-else")
	_, err = wrongIssuer.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewJWTManager("secret", time.Hour, "issuer")
	expired.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = expired.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenFromHeader(t *testing.T) {
	_, err := TokenFromHeader("nope")
	assert.ErrorIs(t, err, ErrMissingToken)

	token, err := TokenFromHeader("Bearer token")
	require.NoError(t, err)
	assert.Equal(t, "token", token)
}

func TestSignIn(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	session, err := svc.SignIn(ctx, "  admin@example.COM ", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "admin@example.com", session.User.Email)
	assert.NotEmpty(t, session.User.UID)
	assert.True(t, session.ExpiresAt.After(time.Now()))

	again, err := svc.SignIn(ctx, "admin@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, session.User.UID, again.User.UID, "UID 对同一邮箱保持不变")

	user, err := svc.CurrentUser(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.User, user)
}

func TestSignIn_InvalidCredentials(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{name: "密码错误", email: "admin@example.com", password: "wrong"},
		{name: "未知账号", email: "nobody@example.com", password: "s3cret"},
		{name: "空邮箱", email: "", password: "s3cret"},
		{name: "空密码", email: "admin@example.com", password: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SignIn(ctx, tt.email, tt.password)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}
}

func TestSignOut(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	session, err := svc.SignIn(ctx, "admin@example.com", "s3cret")
	require.NoError(t, err)

	require.NoError(t, svc.SignOut(ctx, session.Token))

	_, err = svc.CurrentUser(ctx, session.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.ErrorIs(t, svc.SignOut(ctx, session.Token), ErrUnauthenticated)
}

func TestCurrentUser_Invalid(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.CurrentUser(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = svc.CurrentUser(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestOnAuthStateChanged(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	var events []*User
	unsubscribe := svc.OnAuthStateChanged(func(u *User) {
		events = append(events, u)
	})

	session, err := svc.SignIn(ctx, "admin@example.com", "s3cret")
	require.NoError(t, err)
	require.NoError(t, svc.SignOut(ctx, session.Token))

	require.Len(t, events, 2)
	assert.Equal(t, "admin@example.com", events[0].Email)
	assert.Nil(t, events[1])

	unsubscribe()
	_, err = svc.SignIn(ctx, "admin@example.com", "s3cret")
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestUserContext(t *testing.T) {
	_, ok := UserFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithUser(context.Background(), &User{UID: "u", Email: "a@b.c"})
	user, ok := UserFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "u", user.UID)
}
