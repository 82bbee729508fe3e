package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"go-contacts-api/internal/config"
	"go-contacts-api/internal/event"
	"go-contacts-api/internal/handler"
	"go-contacts-api/internal/middleware"
	"go-contacts-api/internal/model"
	"go-contacts-api/internal/repository/memory"
	"go-contacts-api/internal/service"
	"go-contacts-api/internal/validation"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "admin-secret"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *model.APIError `json:"error"`
	Meta    *model.Meta     `json:"meta"`
}

type testAPI struct {
	t       *testing.T
	handler http.Handler
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	cfg := &config.Config{
		RequestTimeout:      5 * time.Second,
		RateLimitRPM:        -1,
		AuthRateLimitRPM:    -1,
		DefaultLocale:       "en",
		RefreshRevokePolicy: config.RefreshRevokeVerified,
	}

	users := memory.NewUserRepository()
	tokens := memory.NewTokenRepository(users)
	auditService := service.NewAuditService(memory.NewAuditRepository())

	tokenService, err := service.NewTokenService("router-test-secret", time.Hour, 24*time.Hour, cfg.RefreshRevokePolicy, users, tokens)
	require.NoError(t, err)

	authService := service.NewAuthService(users, tokenService, auditService, bcrypt.MinCost)
	require.NoError(t, authService.EnsureAdmin(context.Background(), adminEmail, adminPassword))

	contactService := service.NewContactService(memory.NewContactRepository(), auditService, event.NewBus())
	v := validation.New()

	h := New(
		cfg,
		middleware.NewAuthMiddleware(tokenService),
		handler.NewAuthHandler(authService, v),
		handler.NewContactHandler(contactService, v),
		handler.NewAuditHandler(auditService),
		handler.NewDocsHandler("", []byte("openapi: 3.0.3\n")),
		handler.NewHealthHandler(nil),
		nil,
	)

	return &testAPI{t: t, handler: h}
}

func (a *testAPI) do(method string, path string, body any, token string, headers ...string) (int, envelope) {
	a.t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec.Code, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}

func (a *testAPI) register(email string) model.AuthUser {
	a.t.Helper()

	status, env := a.do(http.MethodPost, "/auth/register", model.RegisterRequest{Email: email, Password: "secret1"}, "")
	require.Equal(a.t, http.StatusCreated, status)
	return decode[model.AuthUser](a.t, env.Data)
}

func (a *testAPI) login(email string, password string) model.TokenPair {
	a.t.Helper()

	status, env := a.do(http.MethodPost, "/auth/login", model.LoginRequest{Email: email, Password: password}, "")
	require.Equal(a.t, http.StatusOK, status, env.Error)
	return decode[model.TokenPair](a.t, env.Data)
}

func (a *testAPI) signUp(email string) (model.AuthUser, model.TokenPair) {
	a.t.Helper()

	user := a.register(email)
	return user, a.login(email, "secret1")
}

func (a *testAPI) createContact(token string, name string, phone string) model.Contact {
	a.t.Helper()

	status, env := a.do(http.MethodPost, "/contacts", model.CreateContactRequest{
		Name:  name,
		Email: name + "@example.com",
		Phone: phone,
	}, token)
	require.Equal(a.t, http.StatusCreated, status, env.Error)
	return decode[model.Contact](a.t, env.Data)
}

func TestRegisterAndLogin(t *testing.T) {
	api := newTestAPI(t)

	user := api.register("Alice@Example.com")
	assert.Positive(t, user.ID)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, model.RoleUser, user.Role)

	pair := api.login("alice@example.com", "secret1")
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	status, env := api.do(http.MethodGet, "/auth/me", nil, pair.AccessToken)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, user, decode[model.AuthUser](t, env.Data))

	t.Run("duplicate email", func(t *testing.T) {
		status, env := api.do(http.MethodPost, "/auth/register", model.RegisterRequest{Email: "ALICE@example.com", Password: "secret2"}, "")
		require.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "ALREADY_EXISTS", env.Error.Code)
	})

	t.Run("invalid email", func(t *testing.T) {
		status, env := api.do(http.MethodPost, "/auth/register", model.RegisterRequest{Email: "nope", Password: "secret1"}, "")
		require.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "Email must be valid", env.Error.Message)
	})

	t.Run("short password", func(t *testing.T) {
		status, env := api.do(http.MethodPost, "/auth/register", model.RegisterRequest{Email: "short@example.com", Password: "123"}, "")
		require.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "Password must be at least 6 characters", env.Error.Message)
	})

	t.Run("malformed body", func(t *testing.T) {
		status, env := api.do(http.MethodPost, "/auth/login", "{not json", "")
		require.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "invalid request body", env.Error.Message)
	})

	t.Run("registration cannot grant admin", func(t *testing.T) {
		status, env := api.do(http.MethodPost, "/auth/register", map[string]string{"email": "sneaky@example.com", "password": "secret1", "role": "ADMIN"}, "")
		require.Equal(t, http.StatusCreated, status)
		assert.Equal(t, model.RoleUser, decode[model.AuthUser](t, env.Data).Role)
	})
}

func TestRefreshLifecycle(t *testing.T) {
	api := newTestAPI(t)
	_, first := api.signUp("bob@example.com")

	refresh := func(token string) (int, envelope) {
		return api.do(http.MethodPost, "/auth/refresh", model.RefreshRequest{RefreshToken: token}, "")
	}

	status, env := refresh(first.RefreshToken)
	require.Equal(t, http.StatusOK, status)
	access := decode[model.AccessTokenResponse](t, env.Data)
	status, _ = api.do(http.MethodGet, "/auth/me", nil, access.AccessToken)
	require.Equal(t, http.StatusOK, status)

	t.Run("wrong password keeps the current token", func(t *testing.T) {
		status, env := api.do(http.MethodPost, "/auth/login", model.LoginRequest{Email: "bob@example.com", Password: "wrong-one"}, "")
		require.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "invalid credentials", env.Error.Message)

		status, _ = refresh(first.RefreshToken)
		assert.Equal(t, http.StatusOK, status)
	})

	t.Run("missing and never issued tokens", func(t *testing.T) {
		status, _ := refresh("")
		assert.Equal(t, http.StatusUnauthorized, status)

		status, _ = api.do(http.MethodPost, "/auth/refresh", nil, "")
		assert.Equal(t, http.StatusUnauthorized, status)

		status, _ = refresh("eyJhbGciOiJIUzI1NiJ9.e30.invalid")
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("superseded by a later login", func(t *testing.T) {
		second := api.login("bob@example.com", "secret1")

		status, _ := refresh(first.RefreshToken)
		assert.Equal(t, http.StatusUnauthorized, status)

		status, _ = refresh(second.RefreshToken)
		assert.Equal(t, http.StatusOK, status)

		first = second
	})

	t.Run("access token is not a refresh token", func(t *testing.T) {
		status, _ := refresh(first.AccessToken)
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("logout then refresh", func(t *testing.T) {
		status, _ := api.do(http.MethodPost, "/auth/logout", nil, "")
		assert.Equal(t, http.StatusUnauthorized, status)

		status, _ = api.do(http.MethodPost, "/auth/logout", nil, first.AccessToken)
		require.Equal(t, http.StatusOK, status)

		status, env := refresh(first.RefreshToken)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "UNAUTHORIZED", env.Error.Code)
	})
}

func TestContactOwnership(t *testing.T) {
	api := newTestAPI(t)
	_, alice := api.signUp("alice@example.com")
	_, bob := api.signUp("bob@example.com")
	admin := api.login(adminEmail, adminPassword)

	contact := api.createContact(alice.AccessToken, "friend", "+15550100")
	path := fmt.Sprintf("/contacts/%d", contact.ID)

	status, env := api.do(http.MethodPut, path, map[string]string{"name": "stolen"}, bob.AccessToken)
	require.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	status, env = api.do(http.MethodPut, path, map[string]string{"name": "renamed"}, admin.AccessToken)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "renamed", decode[model.Contact](t, env.Data).Name)
	assert.Equal(t, "Contact renamed updated", env.Message)

	status, env = api.do(http.MethodPut, path, map[string]string{"phone": "+15550199"}, alice.AccessToken)
	require.Equal(t, http.StatusOK, status)
	updated := decode[model.Contact](t, env.Data)
	assert.Equal(t, "renamed", updated.Name)
	assert.Equal(t, "+15550199", updated.Phone)

	status, _ = api.do(http.MethodPut, path, map[string]string{"email": "bad"}, alice.AccessToken)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = api.do(http.MethodPut, "/contacts/999", map[string]string{"name": "x"}, bob.AccessToken)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = api.do(http.MethodPut, "/contacts/abc", map[string]string{"name": "x"}, alice.AccessToken)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = api.do(http.MethodDelete, path, nil, bob.AccessToken)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = api.do(http.MethodDelete, path, nil, alice.AccessToken)
	assert.Equal(t, http.StatusNoContent, status)

	status, env = api.do(http.MethodDelete, path, nil, alice.AccessToken)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "contact not found", env.Error.Message)
}

func TestListingIsScoped(t *testing.T) {
	api := newTestAPI(t)
	alice, aliceTokens := api.signUp("alice@example.com")
	_, bobTokens := api.signUp("bob@example.com")
	admin := api.login(adminEmail, adminPassword)

	for i := range 5 {
		api.createContact(aliceTokens.AccessToken, fmt.Sprintf("alice%d", i), fmt.Sprintf("+1555000%d", i))
	}
	for i := range 3 {
		api.createContact(bobTokens.AccessToken, fmt.Sprintf("bob%d", i), fmt.Sprintf("+1555100%d", i))
	}
	api.createContact(bobTokens.AccessToken, "shared", "+15550001")

	for _, query := range []string{
		"",
		"?page=1&limit=2",
		"?page=2&limit=2&sortBy=name&order=asc",
		"?page=3&limit=2&sortBy=phone&order=desc",
		"?limit=100&sortBy=updatedAt",
	} {
		t.Run("alice"+query, func(t *testing.T) {
			status, env := api.do(http.MethodGet, "/contacts"+query, nil, aliceTokens.AccessToken)
			require.Equal(t, http.StatusOK, status)
			require.NotNil(t, env.Meta)
			assert.Equal(t, 5, env.Meta.Total)
			for _, c := range decode[[]model.Contact](t, env.Data) {
				assert.Equal(t, alice.ID, c.UserID)
			}
		})
	}

	status, env := api.do(http.MethodGet, "/contacts?limit=3", nil, admin.AccessToken)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 9, env.Meta.Total)
	assert.Equal(t, 3, env.Meta.TotalPages)
	assert.Len(t, decode[[]model.Contact](t, env.Data), 3)

	t.Run("page past the end is empty", func(t *testing.T) {
		status, env := api.do(http.MethodGet, "/contacts?page=9", nil, aliceTokens.AccessToken)
		require.Equal(t, http.StatusOK, status)
		assert.JSONEq(t, "[]", string(env.Data))
		assert.Equal(t, "No contacts found", env.Message)
	})

	t.Run("invalid query", func(t *testing.T) {
		for _, query := range []string{"?sortBy=password", "?limit=500", "?page=0", "?page=x"} {
			status, _ := api.do(http.MethodGet, "/contacts"+query, nil, aliceTokens.AccessToken)
			assert.Equal(t, http.StatusBadRequest, status, query)
		}
	})

	t.Run("search by phone", func(t *testing.T) {
		status, env := api.do(http.MethodGet, "/contacts/searchByPhoneNumber?phone=%2B15550001", nil, aliceTokens.AccessToken)
		require.Equal(t, http.StatusOK, status)
		found := decode[[]model.Contact](t, env.Data)
		require.Len(t, found, 1)
		assert.Equal(t, "alice1", found[0].Name)

		status, env = api.do(http.MethodGet, "/contacts/searchByPhoneNumber?phone=%2B15550001", nil, admin.AccessToken)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, 2, env.Meta.Total)

		status, _ = api.do(http.MethodGet, "/contacts/searchByPhoneNumber?phone=abc", nil, aliceTokens.AccessToken)
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("requires a token", func(t *testing.T) {
		status, env := api.do(http.MethodGet, "/contacts", nil, "")
		require.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "no token provided", env.Error.Message)

		status, _ = api.do(http.MethodGet, "/contacts", nil, "forged.token.value")
		assert.Equal(t, http.StatusUnauthorized, status)
	})
}

func TestHugePageNumbers(t *testing.T) {
	api := newTestAPI(t)
	_, tokens := api.signUp("paging@example.com")
	admin := api.login(adminEmail, adminPassword)
	api.createContact(tokens.AccessToken, "only", "+15550200")

	for _, path := range []string{
		"/contacts?page=9223372036854775807&limit=10",
		"/contacts/searchByPhoneNumber?phone=%2B15550200&page=9223372036854775807",
		"/contacts?page=1000001",
	} {
		t.Run(path, func(t *testing.T) {
			status, env := api.do(http.MethodGet, path, nil, tokens.AccessToken)
			require.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, "Page must be at most 1000000", env.Error.Message)
		})
	}

	status, env := api.do(http.MethodGet, "/contacts?page=1000000&limit=100", nil, tokens.AccessToken)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, decode[[]model.Contact](t, env.Data))
	assert.Equal(t, 1, env.Meta.Total)
	assert.Equal(t, 1000000, env.Meta.Page)

	status, env = api.do(http.MethodGet, "/audit?page=9223372036854775807", nil, admin.AccessToken)
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Page must be at most 1000000", env.Error.Message)
}

func TestCreateContactValidation(t *testing.T) {
	api := newTestAPI(t)
	_, tokens := api.signUp("carol@example.com")

	tests := []struct {
		name    string
		body    map[string]string
		message string
	}{
		{name: "missing name", body: map[string]string{"email": "x@example.com", "phone": "+15550100"}, message: "Name is required"},
		{name: "bad email", body: map[string]string{"name": "x", "email": "x", "phone": "+15550100"}, message: "Email must be valid"},
		{name: "bad phone", body: map[string]string{"name": "x", "email": "x@example.com", "phone": "12"}, message: "Phone must be valid"},
		{name: "bad role", body: map[string]string{"name": "x", "email": "x@example.com", "phone": "+15550100", "role": "OWNER"}, message: "Role must be one of USER, ADMIN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := api.do(http.MethodPost, "/contacts", tt.body, tokens.AccessToken)
			require.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, "BAD_REQUEST", env.Error.Code)
			assert.Equal(t, tt.message, env.Error.Message)
		})
	}
}

func TestLocalizedMessages(t *testing.T) {
	api := newTestAPI(t)
	_, tokens := api.signUp("dana@example.com")

	status, env := api.do(http.MethodPost, "/contacts", model.CreateContactRequest{
		Name: "Sara", Email: "sara@example.com", Phone: "+989121234567",
	}, tokens.AccessToken, "Accept-Language", "fa-IR")
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "مخاطب Sara ایجاد شد", env.Message)

	status, env = api.do(http.MethodDelete, "/contacts/404", nil, tokens.AccessToken, "Accept-Language", "fa")
	require.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "مخاطب یافت نشد", env.Error.Message)

	status, env = api.do(http.MethodPost, "/contacts?lang=en", model.CreateContactRequest{
		Name: "Omid", Email: "omid@example.com", Phone: "+989121234568",
	}, tokens.AccessToken, "Accept-Language", "fa")
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "Contact Omid created", env.Message)
}

func TestAuditRequiresAdmin(t *testing.T) {
	api := newTestAPI(t)
	_, tokens := api.signUp("eve@example.com")
	admin := api.login(adminEmail, adminPassword)

	status, _ := api.do(http.MethodGet, "/audit", nil, tokens.AccessToken)
	assert.Equal(t, http.StatusForbidden, status)

	status, env := api.do(http.MethodGet, "/audit?action=auth.login&limit=10", nil, admin.AccessToken)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 2, env.Meta.Total)

	status, _ = api.do(http.MethodGet, "/audit?from=yesterday", nil, admin.AccessToken)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestOperationalRoutes(t *testing.T) {
	api := newTestAPI(t)

	status, env := api.do(http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success)

	status, env = api.do(http.MethodGet, "/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	status, _ = api.do(http.MethodPatch, "/auth/login", nil, "")
	assert.Equal(t, http.StatusMethodNotAllowed, status)

	req := httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil)
	rec := httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "openapi")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}
