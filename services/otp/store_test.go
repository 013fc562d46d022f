package otp

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/PrithviSeran/whats-poppin-sub003/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storeImplementations(t *testing.T) map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store {
			return NewMemoryStore()
		},
		"gorm": func(t *testing.T) Store {
			return NewGormStore(testutils.SetupTestDB(t, Models()...))
		},
	}
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	expires := now.Add(10 * time.Minute)

	for name, newStore := range storeImplementations(t) {
		t.Run(name, func(t *testing.T) {
			t.Run("get missing", func(t *testing.T) {
				store := newStore(t)

				_, err := store.Get(ctx, "nobody@example.com")
				assert.ErrorIs(t, err, ErrRecordNotFound)
			})

			t.Run("put and get", func(t *testing.T) {
				store := newStore(t)
				require.NoError(t, store.Put(ctx, "a@example.com", "123456", now, expires))

				record, err := store.Get(ctx, "a@example.com")
				require.NoError(t, err)
				assert.Equal(t, "a@example.com", record.Email)
				assert.Equal(t, "123456", record.Code)
				assert.True(t, record.CreatedAt.Equal(now))
				assert.True(t, record.ExpiresAt.Equal(expires))
				assert.Nil(t, record.VerifiedAt)
			})

			t.Run("put replaces and clears verification", func(t *testing.T) {
				store := newStore(t)
				require.NoError(t, store.Put(ctx, "a@example.com", "111111", now, expires))
				applied, err := store.MarkVerified(ctx, "a@example.com", "111111", now)
				require.NoError(t, err)
				require.True(t, applied)

				later := now.Add(time.Minute)
				require.NoError(t, store.Put(ctx, "a@example.com", "222222", later, later.Add(10*time.Minute)))

				record, err := store.Get(ctx, "a@example.com")
				require.NoError(t, err)
				assert.Equal(t, "222222", record.Code)
				assert.Nil(t, record.VerifiedAt)
				assert.True(t, record.CreatedAt.Equal(later))
			})

			t.Run("mark verified applies once", func(t *testing.T) {
				store := newStore(t)
				require.NoError(t, store.Put(ctx, "a@example.com", "123456", now, expires))

				applied, err := store.MarkVerified(ctx, "a@example.com", "123456", now.Add(time.Minute))
				require.NoError(t, err)
				assert.True(t, applied)

				applied, err = store.MarkVerified(ctx, "a@example.com", "123456", now.Add(2*time.Minute))
				require.NoError(t, err)
				assert.False(t, applied)

				record, err := store.Get(ctx, "a@example.com")
				require.NoError(t, err)
				require.NotNil(t, record.VerifiedAt)
				assert.True(t, record.VerifiedAt.Equal(now.Add(time.Minute)))
			})

			t.Run("mark verified guards code and expiry", func(t *testing.T) {
				store := newStore(t)
				require.NoError(t, store.Put(ctx, "a@example.com", "123456", now, expires))

				applied, err := store.MarkVerified(ctx, "a@example.com", "654321", now)
				require.NoError(t, err)
				assert.False(t, applied, "superseded code")

				applied, err = store.MarkVerified(ctx, "a@example.com", "123456", expires)
				require.NoError(t, err)
				assert.False(t, applied, "expired record")

				applied, err = store.MarkVerified(ctx, "b@example.com", "123456", now)
				require.NoError(t, err)
				assert.False(t, applied, "missing record")
			})

			t.Run("purge expired", func(t *testing.T) {
				store := newStore(t)
				require.NoError(t, store.Put(ctx, "old@example.com", "111111", now, now.Add(time.Minute)))
				require.NoError(t, store.Put(ctx, "new@example.com", "222222", now, now.Add(time.Hour)))

				purged, err := store.PurgeExpired(ctx, now.Add(10*time.Minute))
				require.NoError(t, err)
				assert.Equal(t, int64(1), purged)

				_, err = store.Get(ctx, "old@example.com")
				assert.ErrorIs(t, err, ErrRecordNotFound)
				_, err = store.Get(ctx, "new@example.com")
				assert.NoError(t, err)
			})

			t.Run("concurrent puts leave one record", func(t *testing.T) {
				store := newStore(t)

				var wg sync.WaitGroup
				for i := 0; i < 10; i++ {
					wg.Add(1)
					go func(i int) {
						defer wg.Done()
						assert.NoError(t, store.Put(ctx, "a@example.com", fmt.Sprintf("%06d", 100000+i), now, expires))
					}(i)
				}
				wg.Wait()

				record, err := store.Get(ctx, "a@example.com")
				require.NoError(t, err)
				assert.True(t, IsCodeShape(record.Code))
			})
		})
	}
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now().UTC()

	require.NoError(t, store.Put(ctx, "a@example.com", "123456", now, now.Add(time.Minute)))
	record, err := store.Get(ctx, "a@example.com")
	require.NoError(t, err)
	record.Code = "000000"

	again, err := store.Get(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "123456", again.Code)
}

func TestGormStore_UnavailableDatabase(t *testing.T) {
	db := testutils.SetupTestDB(t, Models()...)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	store := NewGormStore(db)
	ctx := context.Background()
	now := time.Now().UTC()

	assert.ErrorIs(t, store.Put(ctx, "a@example.com", "123456", now, now.Add(time.Minute)), ErrStoreUnavailable)

	_, err = store.Get(ctx, "a@example.com")
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	_, err = store.MarkVerified(ctx, "a@example.com", "123456", now)
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	_, err = store.PurgeExpired(ctx, now)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}
