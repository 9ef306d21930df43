package broadcast

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/randutil"
	"github.com/lox/blackjack/internal/rules"
	"github.com/lox/blackjack/internal/shoe"
)

func startHub(t *testing.T, opts ...Option) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(opts...)
	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		_ = hub.Close()
		srv.Close()
	})
	return hub, srv
}

func dial(t *testing.T, hub *Hub, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	want := hub.Clients() + 1
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.Eventually(t, func() bool { return hub.Clients() == want }, 2*time.Second, 10*time.Millisecond)
	return conn
}

func read(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestHealth(t *testing.T) {
	t.Parallel()

	_, srv := startHub(t)
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))
}

func TestBroadcastEnvelope(t *testing.T) {
	t.Parallel()

	hub, srv := startHub(t)
	a := dial(t, hub, srv)
	b := dial(t, hub, srv)

	at := time.Date(2026, 5, 1, 20, 0, 0, 0, time.UTC)
	hub.OnEvent(game.NewShoeShuffledEvent(6, 0.75, at))

	for _, conn := range []*websocket.Conn{a, b} {
		msg := read(t, conn)
		assert.Equal(t, "shoe_shuffled", msg.Type)
		assert.True(t, at.Equal(msg.Timestamp))

		var data map[string]any
		require.NoError(t, json.Unmarshal(msg.Data, &data))
		assert.EqualValues(t, 6, data["decks"])
	}
}

func TestStreamsLiveRound(t *testing.T) {
	t.Parallel()

	hub, srv := startHub(t)
	conn := dial(t, hub, srv)

	s := shoe.MustNew(1, shoe.WithRand(randutil.New(3)))
	require.NoError(t, s.Force(deck.MustParseCards("Ts 9h Qd 7c")...))
	c, err := game.New(rules.Standard(), s, game.WithClock(quartz.NewMock(t)), game.WithObserver(hub))
	require.NoError(t, err)
	require.NoError(t, c.PlaceBet(10))

	assert.Equal(t, "round_started", read(t, conn).Type)

	var faceDown int
	for i := 0; i < 4; i++ {
		msg := read(t, conn)
		require.Equal(t, "card_dealt", msg.Type)
		var dealt struct {
			Card     *string `json:"card"`
			FaceDown bool    `json:"face_down"`
		}
		require.NoError(t, json.Unmarshal(msg.Data, &dealt))
		if dealt.FaceDown {
			faceDown++
			assert.Nil(t, dealt.Card, "hole card stays hidden from spectators")
		}
	}
	assert.Equal(t, 1, faceDown)
}

func TestSlowSpectatorIsDropped(t *testing.T) {
	t.Parallel()

	hub, srv := startHub(t, WithBufferSize(1))
	conn := dial(t, hub, srv)
	_ = conn

	// Nobody reads, so the socket and then the queue fill up
	big := Message{Type: "noise", Data: json.RawMessage(`"` + strings.Repeat("x", 64*1024) + `"`)}
	require.Eventually(t, func() bool {
		hub.Broadcast(big)
		return hub.Clients() == 0
	}, 5*time.Second, time.Millisecond)
}

func TestClosedHubRefusesSpectators(t *testing.T) {
	t.Parallel()

	hub, srv := startHub(t)
	conn := dial(t, hub, srv)
	require.NoError(t, hub.Close())
	assert.Equal(t, 0, hub.Clients())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err, "connection is closed by the hub")

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	if resp != nil {
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	}
}
