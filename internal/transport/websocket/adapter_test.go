package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/arena-client/internal/apperror"
	"github.com/rocketscienceinc/arena-client/internal/entity"
	"github.com/rocketscienceinc/arena-client/internal/session"
)

const waitFor = 2 * time.Second

type recordingInbound struct {
	mu       sync.Mutex
	assigned []session.MatchAssigned
	updates  []session.GameUpdate
	undo     int
	declined int
	chat     []entity.ChatMessage
}

func (that *recordingInbound) MatchAssigned(evt session.MatchAssigned) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.assigned = append(that.assigned, evt)
}

func (that *recordingInbound) GameUpdate(evt session.GameUpdate) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.updates = append(that.updates, evt)
}

func (that *recordingInbound) UndoRequested() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.undo++
}

func (that *recordingInbound) UndoDeclined() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.declined++
}

func (that *recordingInbound) ChatReceived(msg entity.ChatMessage) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.chat = append(that.chat, msg)
}

func (that *recordingInbound) updateCount() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.updates)
}

// testServer hands every accepted server-side connection to the test.
type testServer struct {
	*httptest.Server
	conns chan *websocket.Conn
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	server := &testServer{conns: make(chan *websocket.Conn, 4)}
	upgrader := websocket.Upgrader{}

	server.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		server.conns <- conn
	}))
	t.Cleanup(server.Close)

	return server
}

func (that *testServer) url() string {
	return "ws" + strings.TrimPrefix(that.URL, "http")
}

func (that *testServer) accept(t *testing.T) *websocket.Conn {
	t.Helper()

	select {
	case conn := <-that.conns:
		t.Cleanup(func() { conn.Close() })
		return conn
	case <-time.After(waitFor):
		t.Fatal("no connection accepted")
		return nil
	}
}

func send(t *testing.T, conn *websocket.Conn, raw string) {
	t.Helper()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(raw)))
}

func newTestAdapter(t *testing.T, inbound Inbound) *Adapter {
	t.Helper()

	adapter := NewAdapter(slog.New(slog.NewTextHandler(io.Discard, nil)), 4)
	require.NoError(t, adapter.Subscribe(inbound))

	return adapter
}

// serve runs the adapter on a fresh client connection and returns the server side.
func serve(t *testing.T, ctx context.Context, server *testServer, adapter *Adapter) (*websocket.Conn, <-chan error) {
	t.Helper()

	client, _, err := websocket.DefaultDialer.Dial(server.url(), nil)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- adapter.Run(ctx, client)
	}()

	require.Eventually(t, adapter.Connected, waitFor, 10*time.Millisecond)

	return server.accept(t), done
}

const (
	matchFoundJSON = `{"action":"match_found","payload":{"roomId":"room-1","gameType":"tic-tac-toe","mode":"ranked",` +
		`"opponent":{"id":7,"display_name":"Binh"},"firstTurn":1,"playerNumber":2,` +
		`"board":[[0,0,0],[0,0,0],[0,0,0]]}}`
	gameUpdateJSON = `{"v":1,"action":"game_update","payload":{"roomId":"room-1","seq":3,` +
		`"board":[[1,0,0],[0,2,0],[0,0,0]],"currentPlayer":1,"winner":0,"lastMove":{"r":1,"c":1}}}`
)

func TestAdapter_Inbound(t *testing.T) {
	t.Run("Server events reach the session", func(t *testing.T) {
		// Given: an adapter serving a connection
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		inbound := &recordingInbound{}
		adapter := newTestAdapter(t, inbound)
		server := newTestServer(t)
		conn, _ := serve(t, ctx, server, adapter)

		// When: the server sends every inbound action
		send(t, conn, matchFoundJSON)
		send(t, conn, gameUpdateJSON)
		send(t, conn, `{"action":"undo_requested"}`)
		send(t, conn, `{"action":"undo_declined","payload":{}}`)
		send(t, conn, `{"action":"receive_chat","payload":{"sender":"Binh","message":"gl"}}`)

		// Then: each arrives decoded once
		require.Eventually(t, func() bool {
			inbound.mu.Lock()
			defer inbound.mu.Unlock()

			return len(inbound.chat) == 1
		}, waitFor, 10*time.Millisecond)

		inbound.mu.Lock()
		defer inbound.mu.Unlock()

		require.Len(t, inbound.assigned, 1)
		assigned := inbound.assigned[0]
		assert.Equal(t, "room-1", assigned.MatchID)
		assert.Equal(t, entity.PlayerB, assigned.Self)
		assert.Equal(t, entity.PlayerA, assigned.FirstTurn)
		assert.Equal(t, "7", assigned.Opponent.ID)
		assert.Equal(t, entity.TicTacToeShape, assigned.Board.Shape())

		require.Len(t, inbound.updates, 1)
		update := inbound.updates[0]
		assert.Equal(t, uint64(3), update.Sequence)
		assert.Equal(t, entity.PlayerA, update.Turn)
		assert.Equal(t, entity.OutcomeNone, update.Outcome)
		assert.Equal(t, &entity.Coord{Row: 1, Col: 1}, update.LastMove)

		assert.Equal(t, 1, inbound.undo)
		assert.Equal(t, 1, inbound.declined)
		assert.Equal(t, []entity.ChatMessage{{Sender: "Binh", Message: "gl"}}, inbound.chat)
	})

	t.Run("Malformed messages are dropped without closing the connection", func(t *testing.T) {
		// Given: an adapter serving a connection
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		inbound := &recordingInbound{}
		adapter := newTestAdapter(t, inbound)
		server := newTestServer(t)
		conn, _ := serve(t, ctx, server, adapter)

		// When: garbage, an unknown action, a future version and a bad payload are followed by a valid update
		send(t, conn, `not json`)
		send(t, conn, `{"action":"teleport"}`)
		send(t, conn, `{"v":2,"action":"game_update","payload":{}}`)
		send(t, conn, `{"action":"game_update","payload":{"winner":"maybe"}}`)
		send(t, conn, gameUpdateJSON)

		// Then: only the valid update is delivered
		require.Eventually(t, func() bool { return inbound.updateCount() == 1 }, waitFor, 10*time.Millisecond)
		assert.True(t, adapter.Connected())
	})
}

func TestAdapter_Outbound(t *testing.T) {
	t.Run("Intents are written with the versioned layout", func(t *testing.T) {
		// Given: an adapter serving a connection
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		adapter := newTestAdapter(t, &recordingInbound{})
		server := newTestServer(t)
		conn, _ := serve(t, ctx, server, adapter)

		// When: a move and an undo resolution are emitted
		require.NoError(t, adapter.SubmitMove("room-1", entity.Move{Row: 2, Col: 1, Player: entity.PlayerB}))
		require.NoError(t, adapter.ResolveUndo("room-1", true))

		// Then: the server reads both in order
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(waitFor)))

		var move Message
		require.NoError(t, conn.ReadJSON(&move))
		assert.Equal(t, ProtocolVersion, move.Version)
		assert.Equal(t, "make_move", move.Action)
		assert.JSONEq(t, `{"roomId":"room-1","r":2,"c":1,"player":2}`, string(move.Payload))

		var resolve Message
		require.NoError(t, conn.ReadJSON(&resolve))
		assert.Equal(t, "resolve_undo", resolve.Action)
		assert.JSONEq(t, `{"roomId":"room-1","accept":true}`, string(resolve.Payload))
	})

	t.Run("Join omits an empty difficulty", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		adapter := newTestAdapter(t, &recordingInbound{})
		server := newTestServer(t)
		conn, _ := serve(t, ctx, server, adapter)

		require.NoError(t, adapter.JoinQueue(session.JoinRequest{UserID: "u1", GameType: entity.Caro, Mode: entity.RankedMode}))

		require.NoError(t, conn.SetReadDeadline(time.Now().Add(waitFor)))

		var join Message
		require.NoError(t, conn.ReadJSON(&join))
		assert.Equal(t, "join_matchmaking", join.Action)
		assert.JSONEq(t, `{"userId":"u1","type":"caro","mode":"ranked"}`, string(join.Payload))
	})

	t.Run("Emit without a connection fails fast", func(t *testing.T) {
		adapter := newTestAdapter(t, &recordingInbound{})

		err := adapter.ClaimTimeout("room-1")

		require.ErrorIs(t, err, apperror.ErrNoConnection)
	})
}

func TestAdapter_Lifecycle(t *testing.T) {
	t.Run("Second Run on a live adapter is refused", func(t *testing.T) {
		// Given: an adapter serving a connection
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		adapter := newTestAdapter(t, &recordingInbound{})
		server := newTestServer(t)
		serve(t, ctx, server, adapter)

		// When: another connection is handed to it
		other, _, err := websocket.DefaultDialer.Dial(server.url(), nil)
		require.NoError(t, err)
		defer other.Close()

		// Then: it is refused
		require.ErrorIs(t, adapter.Run(ctx, other), ErrAlreadyRunning)
	})

	t.Run("Only one subscriber is accepted", func(t *testing.T) {
		adapter := newTestAdapter(t, &recordingInbound{})

		require.ErrorIs(t, adapter.Subscribe(&recordingInbound{}), ErrAlreadySubscribed)
	})

	t.Run("Run without subscriber is refused", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		adapter := NewAdapter(slog.New(slog.NewTextHandler(io.Discard, nil)), 4)
		server := newTestServer(t)

		client, _, err := websocket.DefaultDialer.Dial(server.url(), nil)
		require.NoError(t, err)
		defer client.Close()

		require.ErrorIs(t, adapter.Run(ctx, client), ErrNotSubscribed)
	})

	t.Run("Cancel ends Run and detaches the queue", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())

		adapter := newTestAdapter(t, &recordingInbound{})
		server := newTestServer(t)
		_, done := serve(t, ctx, server, adapter)

		cancel()

		select {
		case err := <-done:
			require.ErrorIs(t, err, context.Canceled)
		case <-time.After(waitFor):
			t.Fatal("Run did not return")
		}

		assert.False(t, adapter.Connected())
	})

	t.Run("Reconnect does not duplicate handlers", func(t *testing.T) {
		// Given: an adapter whose first connection delivered one update
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		inbound := &recordingInbound{}
		adapter := newTestAdapter(t, inbound)
		server := newTestServer(t)

		first, firstDone := serve(t, ctx, server, adapter)
		send(t, first, gameUpdateJSON)
		require.Eventually(t, func() bool { return inbound.updateCount() == 1 }, waitFor, 10*time.Millisecond)

		// When: the connection drops and a new one is served
		require.NoError(t, first.Close())

		select {
		case err := <-firstDone:
			require.Error(t, err)
			assert.False(t, errors.Is(err, context.Canceled))
		case <-time.After(waitFor):
			t.Fatal("Run did not notice the dropped connection")
		}

		second, _ := serve(t, ctx, server, adapter)
		send(t, second, gameUpdateJSON)

		// Then: the update on the new connection is delivered exactly once
		require.Eventually(t, func() bool { return inbound.updateCount() == 2 }, waitFor, 10*time.Millisecond)
		time.Sleep(50 * time.Millisecond)
		assert.Equal(t, 2, inbound.updateCount())
	})
}

func TestMessage_Encode(t *testing.T) {
	data, err := encode(actionClaimTimeout, roomPayload{RoomID: "room-9"})
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))

	assert.Equal(t, ProtocolVersion, msg.Version)
	assert.Equal(t, "claim_timeout", msg.Action)
	assert.JSONEq(t, `{"roomId":"room-9"}`, string(msg.Payload))
}
