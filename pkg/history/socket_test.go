package history_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/compass/pkg/history"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitEvent(t *testing.T, ch <-chan history.Event) history.Event {
	t.Helper()

	select {
	case e := <-ch:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for history event")
		return history.Event{}
	}
}

func TestSocket_NavigateFromClient(t *testing.T) {
	t.Parallel()

	sock := history.NewSocket(history.WithSocketToken("/start"))
	sock.SetEnabled(true)
	assert.Equal(t, "/start", sock.Token())

	events := make(chan history.Event, 4)
	sock.Listen(func(e history.Event) { events <- e })

	srv := httptest.NewServer(sock)
	defer srv.Close()

	conn := dial(t, srv)
	require.NoError(t, conn.WriteJSON(history.Message{Type: history.MessageNavigate, Token: "/blog/42", Path: "/app"}))

	e := waitEvent(t, events)
	assert.Equal(t, history.Event{Token: "/blog/42", IsNavigation: true}, e)
	assert.Equal(t, "/blog/42", sock.Token())
	assert.Equal(t, "/app", sock.Path())
	assert.True(t, sock.Connected())
}

func TestSocket_SetTokenPushesToClient(t *testing.T) {
	t.Parallel()

	sock := history.NewSocket()
	sock.SetEnabled(true)

	events := make(chan history.Event, 4)
	sock.Listen(func(e history.Event) { events <- e })

	srv := httptest.NewServer(sock)
	defer srv.Close()

	conn := dial(t, srv)
	require.NoError(t, conn.WriteJSON(history.Message{Type: history.MessageNavigate, Token: "/a"}))
	waitEvent(t, events)

	sock.SetToken("/b")
	assert.Equal(t, history.Event{Token: "/b"}, waitEvent(t, events))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg history.Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, history.Message{Type: history.MessageSetToken, Token: "/b"}, msg)
}

func TestSocket_IgnoresUnknownMessages(t *testing.T) {
	t.Parallel()

	sock := history.NewSocket()
	sock.SetEnabled(true)

	events := make(chan history.Event, 4)
	sock.Listen(func(e history.Event) { events <- e })

	srv := httptest.NewServer(sock)
	defer srv.Close()

	conn := dial(t, srv)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, conn.WriteJSON(history.Message{Type: "bogus", Token: "/x"}))
	require.NoError(t, conn.WriteJSON(history.Message{Type: history.MessageNavigate, Token: "/ok"}))

	assert.Equal(t, "/ok", waitEvent(t, events).Token)
	assert.Equal(t, "/ok", sock.Token())
}

func TestSocket_SetTokenWithoutClient(t *testing.T) {
	t.Parallel()

	sock := history.NewSocket()
	sock.SetEnabled(true)

	var got []history.Event
	sock.Listen(func(e history.Event) { got = append(got, e) })

	sock.SetToken("/offline")
	assert.False(t, sock.Connected())
	assert.Equal(t, "/offline", sock.Token())
	assert.Equal(t, []history.Event{{Token: "/offline"}}, got)
}

func TestSocket_RejectsPlainHTTP(t *testing.T) {
	t.Parallel()

	sock := history.NewSocket()
	rec := httptest.NewRecorder()
	sock.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, sock.Connected())
}
