package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"go-contacts-api/internal/config"
	"go-contacts-api/internal/event"
	"go-contacts-api/internal/model"
	"go-contacts-api/internal/repository/memory"
)

const testSecret = "test-secret"

type testEnv struct {
	users    *memory.UserRepository
	tokens   *memory.TokenRepository
	contacts *memory.ContactRepository
	auditLog *memory.AuditRepository
	bus      *event.InMemoryBus

	tokenService   *TokenService
	authService    *AuthService
	contactService *ContactService
	auditService   *AuditService
}

func newTestEnv(t *testing.T, revokePolicy string) *testEnv {
	t.Helper()

	env := &testEnv{
		users:    memory.NewUserRepository(),
		contacts: memory.NewContactRepository(),
		auditLog: memory.NewAuditRepository(),
		bus:      event.NewBus(),
	}
	env.tokens = memory.NewTokenRepository(env.users)

	tokenService, err := NewTokenService(testSecret, time.Hour, 7*24*time.Hour, revokePolicy, env.users, env.tokens)
	require.NoError(t, err)

	env.tokenService = tokenService
	env.auditService = NewAuditService(env.auditLog)
	env.authService = NewAuthService(env.users, tokenService, env.auditService, bcrypt.MinCost)
	env.contactService = NewContactService(env.contacts, env.auditService, env.bus)
	return env
}

func (e *testEnv) register(t *testing.T, email string, password string) model.AuthUser {
	t.Helper()

	user, err := e.authService.Register(context.Background(), model.AuditActor{}, email, password)
	require.NoError(t, err)
	return user
}

func (e *testEnv) login(t *testing.T, email string, password string) model.TokenPair {
	t.Helper()

	pair, err := e.authService.Login(context.Background(), model.AuditActor{}, email, password)
	require.NoError(t, err)
	return pair
}

func (e *testEnv) storedRefreshToken(t *testing.T, userID int64) string {
	t.Helper()

	token, err := e.tokens.Current(context.Background(), userID)
	require.NoError(t, err)
	return token
}

func newVerifiedEnv(t *testing.T) *testEnv {
	return newTestEnv(t, config.RefreshRevokeVerified)
}

type mockTokenStore struct {
	mock.Mock
}

func (m *mockTokenStore) Store(ctx context.Context, userID int64, token string) error {
	args := m.Called(ctx, userID, token)
	return args.Error(0)
}

func (m *mockTokenStore) Current(ctx context.Context, userID int64) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *mockTokenStore) Revoke(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func actorFor(id int64, role model.Role) model.AuditActor {
	return model.AuditActor{UserID: id, Role: role}
}
