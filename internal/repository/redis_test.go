package repository

import (
	"context"
	"testing"
	"time"

	"parkovka/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisRepo(t *testing.T) (*RedisHoldRepository, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisHoldRepository(client), mr
}

func TestRedisAcquireHold(t *testing.T) {
	repo, mr := setupRedisRepo(t)
	ctx := context.Background()
	ref := models.SlotRef{Floor: "B", SlotID: "B03"}

	ok, err := repo.AcquireHold(ctx, ref, "ivan", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	t.Run("OtherUserBlocked", func(t *testing.T) {
		ok, err := repo.AcquireHold(ctx, ref, "petr", time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("OwnerExtends", func(t *testing.T) {
		ok, err := repo.AcquireHold(ctx, ref, "ivan", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("FreeAfterExpiry", func(t *testing.T) {
		mr.FastForward(2 * time.Minute)
		ok, err := repo.AcquireHold(ctx, ref, "petr", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestRedisReleaseHold(t *testing.T) {
	repo, _ := setupRedisRepo(t)
	ctx := context.Background()
	ref := models.SlotRef{Floor: "B", SlotID: "B03"}

	ok, err := repo.AcquireHold(ctx, ref, "ivan", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	// Чужой release не снимает удержание.
	require.NoError(t, repo.ReleaseHold(ctx, ref, "petr"))
	ok, err = repo.AcquireHold(ctx, ref, "petr", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.ReleaseHold(ctx, ref, "ivan"))
	ok, err = repo.AcquireHold(ctx, ref, "petr", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	t.Run("ReleaseMissingIsNoop", func(t *testing.T) {
		assert.NoError(t, repo.ReleaseHold(ctx, models.SlotRef{Floor: "C", SlotID: "C01"}, "ivan"))
	})
}

func TestRedisMarkIncident(t *testing.T) {
	repo, mr := setupRedisRepo(t)
	ctx := context.Background()

	first, err := repo.MarkIncident(ctx, "bk-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, first)

	second, err := repo.MarkIncident(ctx, "bk-1", time.Hour)
	require.NoError(t, err)
	assert.False(t, second)

	other, err := repo.MarkIncident(ctx, "bk-2", time.Hour)
	require.NoError(t, err)
	assert.True(t, other)

	mr.FastForward(2 * time.Hour)
	again, err := repo.MarkIncident(ctx, "bk-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, again)

	require.NoError(t, repo.ClearIncident(ctx, "bk-2"))
	rearmed, err := repo.MarkIncident(ctx, "bk-2", time.Hour)
	require.NoError(t, err)
	assert.True(t, rearmed)
}

func TestRedisNilClient(t *testing.T) {
	repo := NewRedisHoldRepository(nil)
	ctx := context.Background()

	_, err := repo.AcquireHold(ctx, models.SlotRef{Floor: "B", SlotID: "B01"}, "ivan", time.Minute)
	assert.Error(t, err)
	assert.Error(t, repo.ReleaseHold(ctx, models.SlotRef{Floor: "B", SlotID: "B01"}, "ivan"))
	_, err = repo.MarkIncident(ctx, "bk-1", time.Minute)
	assert.Error(t, err)
	assert.Error(t, repo.ClearIncident(ctx, "bk-1"))
}
