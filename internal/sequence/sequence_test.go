package sequence

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisGenerator(t *testing.T) (*Redis, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client), mr
}

func TestGenerators(t *testing.T) {
	redisGen, _ := newRedisGenerator(t)
	generators := map[string]Generator{
		"memory": NewMemory(),
		"redis":  redisGen,
	}

	for name, gen := range generators {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			for want := int64(1); want <= 3; want++ {
				got, err := gen.Next(ctx, Books)
				require.NoError(t, err)
				assert.Equal(t, want, got)
			}

			first, err := gen.Next(ctx, Authors)
			require.NoError(t, err)
			assert.Equal(t, int64(1), first, "counters are independent")
		})
	}
}

func TestGenerators_ConcurrentCallsYieldDistinctIDs(t *testing.T) {
	redisGen, _ := newRedisGenerator(t)
	generators := map[string]Generator{
		"memory": NewMemory(),
		"redis":  redisGen,
	}

	const workers = 50
	for name, gen := range generators {
		t.Run(name, func(t *testing.T) {
			var (
				wg   sync.WaitGroup
				mu   sync.Mutex
				seen = make(map[int64]bool)
			)
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					id, err := gen.Next(context.Background(), Books)
					assert.NoError(t, err)
					mu.Lock()
					seen[id] = true
					mu.Unlock()
				}()
			}
			wg.Wait()
			assert.Len(t, seen, workers)
		})
	}
}

func TestRedis_UsesPrefixedKey(t *testing.T) {
	gen, mr := newRedisGenerator(t)

	_, err := gen.Next(context.Background(), Authors)
	require.NoError(t, err)

	v, err := mr.Get("booksvc:seq:authors_sequence")
	require.NoError(t, err)
	assert.Equal(t, "1", v)
	assert.NoError(t, gen.Ping(context.Background()))
}

func TestRedis_ServerDown(t *testing.T) {
	gen, mr := newRedisGenerator(t)
	mr.Close()

	_, err := gen.Next(context.Background(), Books)
	assert.Error(t, err)
}
