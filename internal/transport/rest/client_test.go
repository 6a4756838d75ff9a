package rest

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/rocketscienceinc/arena-client/internal/apperror"
	"github.com/rocketscienceinc/arena-client/internal/entity"
)

// newTestClient serves routes from an in-memory listener.
func newTestClient(t *testing.T, routes map[string]string) (*Client, *[]string) {
	t.Helper()

	ln := fasthttputil.NewInmemoryListener()
	requested := &[]string{}

	server := &fasthttp.Server{
		Handler: func(ctx *fasthttp.RequestCtx) {
			*requested = append(*requested, string(ctx.RequestURI()))

			body, ok := routes[string(ctx.Path())]
			if !ok {
				ctx.SetStatusCode(fasthttp.StatusNotFound)
				ctx.SetBodyString(`{"error":"not found"}`)
				return
			}

			if body == "" {
				ctx.SetStatusCode(fasthttp.StatusInternalServerError)
				return
			}

			ctx.SetContentType("application/json")
			ctx.SetBodyString(body)
		},
	}

	go func() {
		_ = server.Serve(ln)
	}()

	t.Cleanup(func() {
		_ = server.Shutdown()
		_ = ln.Close()
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := NewClientWithDialer(logger, "http://arena.test/", func(string) (net.Conn, error) {
		return ln.Dial()
	})

	return client, requested
}

func TestClient_FetchMatch(t *testing.T) {
	ctx := context.Background()

	t.Run("Returns the record with its move log", func(t *testing.T) {
		// Given: the API knows match 42
		client, _ := newTestClient(t, map[string]string{
			"/api/match/42": `{"id":42,"game_type":"tic-tac-toe","p1_name":"An","p2_name":"Binh",` +
				`"player1_id":1,"player2_id":2,"winner_id":1,` +
				`"moves":[{"r":0,"c":0,"player":1},{"r":1,"c":1,"player":2}]}`,
		})

		// When: fetching it
		record, err := client.FetchMatch(ctx, "42")

		// Then: the record is decoded
		require.NoError(t, err)
		assert.Equal(t, "42", record.ID)
		assert.Equal(t, entity.TicTacToe, record.GameType)
		assert.Equal(t, "1", record.WinnerID)
		assert.Equal(t, entity.MoveLog{{Row: 0, Col: 0, Player: entity.PlayerA}, {Row: 1, Col: 1, Player: entity.PlayerB}}, record.Moves)
	})

	t.Run("Legacy record without moves", func(t *testing.T) {
		client, _ := newTestClient(t, map[string]string{
			"/api/match/7": `{"id":7,"game_type":"caro","p1_name":"An","p2_name":"Binh","moves":null}`,
		})

		record, err := client.FetchMatch(ctx, "7")

		require.NoError(t, err)
		assert.Empty(t, record.Moves)
	})

	t.Run("Missing match maps to ErrNotFound", func(t *testing.T) {
		client, _ := newTestClient(t, map[string]string{})

		record, err := client.FetchMatch(ctx, "404")

		require.ErrorIs(t, err, apperror.ErrNotFound)
		assert.Nil(t, record)
	})

	t.Run("Server error is reported", func(t *testing.T) {
		client, _ := newTestClient(t, map[string]string{"/api/match/1": ""})

		_, err := client.FetchMatch(ctx, "1")

		require.ErrorIs(t, err, ErrUnexpectedStatus)
	})

	t.Run("Broken body is reported", func(t *testing.T) {
		client, _ := newTestClient(t, map[string]string{"/api/match/1": `{"id":`})

		_, err := client.FetchMatch(ctx, "1")

		require.Error(t, err)
	})
}

func TestClient_Lists(t *testing.T) {
	ctx := context.Background()

	t.Run("Leaderboard uses the default limit", func(t *testing.T) {
		// Given: a leaderboard with two players
		client, requested := newTestClient(t, map[string]string{
			"/api/leaderboard": `[{"id":1,"display_name":"An","rank_score":1200,"user_level":5,"tier_name":"Gold"},` +
				`{"id":2,"display_name":"Binh","rank_score":900}]`,
		})

		// When: fetching without a limit
		users, err := client.FetchLeaderboard(ctx, 0)

		// Then: both are returned and the limit was sent
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, "An", users[0].DisplayName)
		assert.Equal(t, 1200, users[0].RankScore)
		assert.Equal(t, []string{"/api/leaderboard?limit=10"}, *requested)
	})

	t.Run("History passes the user and limit", func(t *testing.T) {
		client, requested := newTestClient(t, map[string]string{
			"/api/history/5": `[{"id":9,"game_type":"caro","mode":"ranked","opponent_name":"Binh","result":"win"}]`,
		})

		history, err := client.FetchMatchHistory(ctx, "5", 3)

		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, entity.Caro, history[0].GameType)
		assert.Equal(t, []string{"/api/history/5?limit=3"}, *requested)
	})

	t.Run("User profile", func(t *testing.T) {
		client, _ := newTestClient(t, map[string]string{
			"/api/user/5": `{"id":5,"username":"an","display_name":"An","rank_level":"Gold","rank_score":1200}`,
		})

		user, err := client.FetchUser(ctx, "5")

		require.NoError(t, err)
		assert.Equal(t, 5, user.ID)
		assert.Equal(t, "Gold", user.RankLevel)
	})
}
