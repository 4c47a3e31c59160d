package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func adapters(t *testing.T) map[string]Adapter {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlAdapter, err := NewSQLAdapter(db)
	require.NoError(t, err)

	all := map[string]Adapter{
		"memory": NewMemoryAdapter(),
		"redis":  NewRedisAdapterFromClient(rdb, WithKeyPrefix("test:")),
		"sql":    sqlAdapter,
	}
	t.Cleanup(func() {
		for _, a := range all {
			_ = a.Close()
		}
	})
	return all
}

func TestAdapter_GetSet(t *testing.T) {
	for name, a := range adapters(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, a.Set(ctx, "key1", json.RawMessage(`"value1"`)))

			raw, err := a.Get(ctx, "key1")
			require.NoError(t, err)
			assert.JSONEq(t, `"value1"`, string(raw))

			require.NoError(t, a.Set(ctx, "key1", json.RawMessage(`{"v":2}`)))
			raw, err = a.Get(ctx, "key1")
			require.NoError(t, err)
			assert.JSONEq(t, `{"v":2}`, string(raw))

			_, err = a.Get(ctx, "nonexistent")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestAdapter_Delete(t *testing.T) {
	for name, a := range adapters(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, a.Set(ctx, "key1", json.RawMessage(`1`)))
			require.NoError(t, a.Delete(ctx, "key1"))

			_, err := a.Get(ctx, "key1")
			assert.ErrorIs(t, err, ErrNotFound)

			// Deleting a missing key is not an error
			assert.NoError(t, a.Delete(ctx, "nonexistent"))
		})
	}
}

func TestAdapter_Keys(t *testing.T) {
	for name, a := range adapters(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			for _, k := range []string{"thread:b", "thread:a", "other:x", "thread_c"} {
				require.NoError(t, a.Set(ctx, k, json.RawMessage(`null`)))
			}

			keys, err := a.Keys(ctx, "thread:")
			require.NoError(t, err)
			assert.Equal(t, []string{"thread:a", "thread:b"}, keys)
		})
	}
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	a := NewMemoryAdapter()

	type item struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	require.NoError(t, SetJSON(ctx, a, "item", item{Name: "a", Count: 2}))
	got, err := GetJSON[item](ctx, a, "item")
	require.NoError(t, err)
	assert.Equal(t, item{Name: "a", Count: 2}, got)

	require.NoError(t, a.Set(ctx, "bad", json.RawMessage(`"not an object"`)))
	_, err = GetJSON[item](ctx, a, "bad")
	var serr *SerializationError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "bad", serr.Key)
}

func TestMemoryAdapter_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	a := NewMemoryAdapter()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i)
			_ = a.Set(ctx, key, json.RawMessage(`true`))
			_, _ = a.Get(ctx, key)
		}(i)
	}
	wg.Wait()

	keys, err := a.Keys(ctx, "k")
	require.NoError(t, err)
	assert.Len(t, keys, 50)
}

func TestOpenSQL_UnsupportedDriver(t *testing.T) {
	_, err := OpenSQL("oracle", "")
	assert.EqualError(t, err, `store: unsupported SQL driver "oracle"`)
}
