package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/arena-client/internal/entity"
	"github.com/rocketscienceinc/arena-client/testing/suite"
)

func testRecord() *entity.MatchRecord {
	return &entity.MatchRecord{
		ID:       "42",
		GameType: entity.TicTacToe,
		Mode:     entity.RankedMode,
		P1Name:   "An",
		P2Name:   "Binh",
		P1ID:     "1",
		P2ID:     "2",
		WinnerID: "1",
		Moves: entity.MoveLog{
			{Row: 0, Col: 0, Player: entity.PlayerA},
			{Row: 1, Col: 1, Player: entity.PlayerB},
		},
	}
}

func TestMatchRepository_SaveAndGet(t *testing.T) {
	t.Run("Saved record is returned unchanged", func(t *testing.T) {
		ctx, st := suite.New(t)

		matchRepo := NewMatchRepository(st.Storage)

		// Given: a cached match
		record := testRecord()
		require.NoError(t, matchRepo.Save(ctx, record, time.Minute))

		// When: it is read back
		cached, err := matchRepo.GetByID(ctx, record.ID)

		// Then: it matches the saved record including its moves
		require.NoError(t, err)
		assert.Equal(t, record, cached)
	})

	t.Run("Ttl is applied", func(t *testing.T) {
		ctx, st := suite.New(t)

		matchRepo := NewMatchRepository(st.Storage)
		require.NoError(t, matchRepo.Save(ctx, testRecord(), time.Minute))

		ttl, err := st.Storage.TTL(ctx, "match:42").Result()

		require.NoError(t, err)
		assert.Greater(t, ttl, time.Duration(0))
		assert.LessOrEqual(t, ttl, time.Minute)
	})

	t.Run("Miss returns ErrMatchNotFound", func(t *testing.T) {
		ctx, st := suite.New(t)

		matchRepo := NewMatchRepository(st.Storage)

		// When: GetByID is called with an unknown id
		cached, err := matchRepo.GetByID(ctx, "9999")

		// Then: the miss is reported
		require.ErrorIs(t, err, ErrMatchNotFound)
		assert.Nil(t, cached)
	})

	t.Run("Broken value is an error", func(t *testing.T) {
		ctx, st := suite.New(t)

		require.NoError(t, st.Storage.Set(ctx, "match:1", "{", 0).Err())

		_, err := NewMatchRepository(st.Storage).GetByID(ctx, "1")

		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrMatchNotFound)
	})
}

func TestMatchRepository_DeleteByID(t *testing.T) {
	ctx, st := suite.New(t)

	matchRepo := NewMatchRepository(st.Storage)

	// Given: a cached match
	record := testRecord()
	require.NoError(t, matchRepo.Save(ctx, record, 0))

	// When: it is deleted
	require.NoError(t, matchRepo.DeleteByID(ctx, record.ID))

	// Then: it is gone
	_, err := matchRepo.GetByID(ctx, record.ID)
	require.ErrorIs(t, err, ErrMatchNotFound)
}
