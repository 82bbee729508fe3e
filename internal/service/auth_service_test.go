package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"go-contacts-api/internal/model"
	"go-contacts-api/pkg/apierror"
)

func TestRegister(t *testing.T) {
	t.Parallel()

	env := newVerifiedEnv(t)
	ctx := context.Background()

	user := env.register(t, "  Alice@Example.com ", "secret1")
	require.Positive(t, user.ID)
	require.Equal(t, "alice@example.com", user.Email)
	require.Equal(t, model.RoleUser, user.Role)

	stored, err := env.users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotEqual(t, "secret1", stored.PasswordHash)
	require.Empty(t, stored.RefreshToken)

	t.Run("duplicate email is rejected case-insensitively", func(t *testing.T) {
		_, err := env.authService.Register(ctx, model.AuditActor{}, "ALICE@example.com", "other-pass")
		require.ErrorIs(t, err, model.ErrUserAlreadyExists)
		require.Equal(t, apierror.KindConflict, apierror.KindOf(err))
		require.Equal(t, 400, apierror.KindOf(err).HTTPStatus())

		found, err := env.users.FindByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		require.Equal(t, user.ID, found.ID)
	})

	t.Run("password over bcrypt limit is a validation error", func(t *testing.T) {
		_, err := env.authService.Register(ctx, model.AuditActor{}, "long@example.com", strings.Repeat("x", 80))
		require.Equal(t, apierror.KindValidation, apierror.KindOf(err))
	})

	t.Run("empty credentials", func(t *testing.T) {
		_, err := env.authService.Register(ctx, model.AuditActor{}, " ", "secret1")
		require.Equal(t, apierror.KindValidation, apierror.KindOf(err))
	})
}

func TestLogin(t *testing.T) {
	t.Parallel()

	env := newVerifiedEnv(t)
	ctx := context.Background()
	user := env.register(t, "bob@example.com", "secret1")

	pair := env.login(t, "BOB@example.com", "secret1")
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.NotEqual(t, pair.AccessToken, pair.RefreshToken)
	require.Equal(t, "Bearer", pair.TokenType)
	require.Equal(t, int64(3600), pair.ExpiresIn)
	require.Equal(t, pair.RefreshToken, env.storedRefreshToken(t, user.ID))

	claims, err := env.tokenService.VerifyAccessToken(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.UserID)

	t.Run("wrong password leaves stored token untouched", func(t *testing.T) {
		_, err := env.authService.Login(ctx, model.AuditActor{}, "bob@example.com", "wrong-pass")
		require.ErrorIs(t, err, model.ErrInvalidCredentials)
		require.Equal(t, apierror.KindUnauthorized, apierror.KindOf(err))
		require.Equal(t, pair.RefreshToken, env.storedRefreshToken(t, user.ID))
	})

	t.Run("unknown email reads the same as a wrong password", func(t *testing.T) {
		_, err := env.authService.Login(ctx, model.AuditActor{}, "nobody@example.com", "secret1")
		require.ErrorIs(t, err, model.ErrInvalidCredentials)

		var apiErr *apierror.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, "invalid credentials", apiErr.Message)
	})
}

func TestAuthRefreshAndLogout(t *testing.T) {
	t.Parallel()

	env := newVerifiedEnv(t)
	ctx := context.Background()
	user := env.register(t, "carol@example.com", "secret1")
	pair := env.login(t, "carol@example.com", "secret1")

	refreshed, err := env.authService.Refresh(ctx, model.AuditActor{}, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, refreshed.AccessToken)
	require.Equal(t, "Bearer", refreshed.TokenType)

	actor := model.AuditActor{UserID: user.ID, Email: user.Email, Role: user.Role}
	require.NoError(t, env.authService.Logout(ctx, actor))

	_, err = env.authService.Refresh(ctx, model.AuditActor{}, pair.RefreshToken)
	require.Equal(t, apierror.KindUnauthorized, apierror.KindOf(err))

	entries, _, err := env.auditLog.Query(ctx, model.AuditQuery{Action: "auth.refresh", Status: model.AuditStatusFailure})
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestMe(t *testing.T) {
	t.Parallel()

	env := newVerifiedEnv(t)
	user := env.register(t, "dave@example.com", "secret1")

	me, err := env.authService.Me(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, user, me)

	_, err = env.authService.Me(context.Background(), 404)
	require.Equal(t, apierror.KindNotFound, apierror.KindOf(err))
}

func TestEnsureAdmin(t *testing.T) {
	t.Parallel()

	env := newVerifiedEnv(t)
	ctx := context.Background()

	require.NoError(t, env.authService.EnsureAdmin(ctx, "", ""))
	require.NoError(t, env.authService.EnsureAdmin(ctx, "Root@Example.com", "admin-pass"))
	require.NoError(t, env.authService.EnsureAdmin(ctx, "root@example.com", "different"))

	admin, err := env.users.FindByEmail(ctx, "root@example.com")
	require.NoError(t, err)
	require.Equal(t, model.RoleAdmin, admin.Role)

	pair := env.login(t, "root@example.com", "admin-pass")
	claims, err := env.tokenService.VerifyAccessToken(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, model.RoleAdmin, claims.Role)
}

func TestAuthActionsAreAudited(t *testing.T) {
	t.Parallel()

	env := newVerifiedEnv(t)
	ctx := context.Background()
	env.register(t, "erin@example.com", "secret1")
	env.login(t, "erin@example.com", "secret1")
	_, _ = env.authService.Login(ctx, model.AuditActor{IP: "10.0.0.1"}, "erin@example.com", "nope-nope")

	entries, meta, err := env.auditLog.Query(ctx, model.AuditQuery{Action: "auth.login"})
	require.NoError(t, err)
	require.Equal(t, 2, meta.Total)
	require.Equal(t, model.AuditStatusFailure, entries[0].Status)
	require.Equal(t, "10.0.0.1", entries[0].Actor.IP)
	require.Equal(t, model.AuditStatusSuccess, entries[1].Status)

	registered, _, err := env.auditLog.Query(ctx, model.AuditQuery{Action: "auth.register"})
	require.NoError(t, err)
	require.Len(t, registered, 1)
	require.Equal(t, "erin@example.com", registered[0].Actor.Email)
}
