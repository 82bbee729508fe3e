package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"go-contacts-api/internal/event"
	"go-contacts-api/internal/middleware"
	"go-contacts-api/internal/model"
	"go-contacts-api/pkg/apierror"
)

type stubVerifier map[string]*model.AuthClaims

func (s stubVerifier) VerifyAccessToken(token string) (*model.AuthClaims, error) {
	if claims, ok := s[token]; ok {
		return claims, nil
	}
	return nil, apierror.Unauthorized("invalid or expired token")
}

func startServer(t *testing.T) (*event.InMemoryBus, *httptest.Server, context.CancelFunc) {
	t.Helper()

	bus := event.NewBus()
	hub := NewHub(bus)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	auth := middleware.NewAuthMiddleware(stubVerifier{
		"alice": {UserID: 1, Role: model.RoleUser},
		"bob":   {UserID: 2, Role: model.RoleUser},
		"root":  {UserID: 3, Role: model.RoleAdmin},
		"brief": {UserID: 4, Role: model.RoleUser, ExpiresAt: time.Now().Add(300 * time.Millisecond)},
	})
	server := httptest.NewServer(auth.RequireAuthOrQueryToken(http.HandlerFunc(hub.ServeWS)))
	t.Cleanup(func() {
		cancel()
		server.Close()
	})
	return bus, server, cancel
}

func dial(t *testing.T, server *httptest.Server, token string) *gorillaws.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?access_token=" + token
	conn, resp, err := gorillaws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *gorillaws.Conn) event.Event {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var e event.Event
	require.NoError(t, json.Unmarshal(data, &e))
	return e
}

func TestEventsAreScopedToOwner(t *testing.T) {
	bus, server, _ := startServer(t)

	alice := dial(t, server, "alice")
	bob := dial(t, server, "bob")
	root := dial(t, server, "root")

	bus.Publish(event.Event{Type: event.TypeContactCreated, OwnerID: 1, Payload: map[string]any{"name": "a"}})
	bus.Publish(event.Event{Type: event.TypeContactUpdated, OwnerID: 2, Payload: map[string]any{"name": "b"}})

	got := readEvent(t, alice)
	require.Equal(t, int64(1), got.OwnerID)
	require.Equal(t, event.TypeContactCreated, got.Type)
	require.NotEmpty(t, got.ID)

	got = readEvent(t, bob)
	require.Equal(t, int64(2), got.OwnerID, "bob must not receive alice's event")

	require.Equal(t, int64(1), readEvent(t, root).OwnerID)
	require.Equal(t, int64(2), readEvent(t, root).OwnerID)

	require.NoError(t, alice.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := alice.ReadMessage()
	require.Error(t, err)
}

func TestServeWSRequiresToken(t *testing.T) {
	_, server, _ := startServer(t)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?access_token=forged"
	_, resp, err := gorillaws.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHubShutdownClosesClients(t *testing.T) {
	_, server, cancel := startServer(t)
	conn := dial(t, server, "alice")

	cancel()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
}

func TestConnectionClosesWhenTokenExpires(t *testing.T) {
	_, server, _ := startServer(t)
	conn := dial(t, server, "brief")

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	require.True(t, gorillaws.IsCloseError(err, gorillaws.ClosePolicyViolation), "got %v", err)
}
