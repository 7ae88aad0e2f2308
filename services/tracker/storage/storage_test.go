package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/iulianpascalau/bench-tracker/services/tracker/model"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type persister interface {
	Save(ctx context.Context, h model.History) error
	Load(ctx context.Context) (model.History, error)
	Close() error
	IsInterfaceNil() bool
}

func createRun(revisionID string, timestamp int64, values ...float64) model.BenchRun {
	metrics := make([]model.Metric, 0, len(values))
	for i, v := range values {
		metrics = append(metrics, model.Metric{
			Name:        fmt.Sprintf("uncontended/m%d", i),
			Value:       v,
			ErrorMargin: v / 10,
			Unit:        "ns/iter",
		})
	}

	return model.BenchRun{
		Revision: model.Revision{
			ID:        revisionID,
			Author:    model.Identity{Name: "vorner", Handle: "vorner"},
			Committer: model.Identity{Name: "GitHub"},
			Message:   "Merge " + revisionID,
			Timestamp: timestamp - 50,
			URL:       "https://github.com/vorner/arc-swap/commit/" + revisionID,
		},
		Tool:      "cargo",
		Timestamp: timestamp,
		Metrics:   metrics,
	}
}

func TestPersisters(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		factory func(t *testing.T) persister
	}{
		{
			name: "sqlite",
			factory: func(t *testing.T) persister {
				t.Helper()
				p, err := NewSQLitePersister(":memory:")
				require.NoError(t, err)
				t.Cleanup(func() {
					_ = p.Close()
				})
				return p
			},
		},
		{
			name: "redis",
			factory: func(t *testing.T) persister {
				t.Helper()
				mr := miniredis.RunT(t)
				client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
				p, err := NewRedisPersister(client, "test")
				require.NoError(t, err)
				t.Cleanup(func() {
					_ = p.Close()
				})
				return p
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			runPersisterContract(t, tc.factory(t))
		})
	}
}

func runPersisterContract(t *testing.T, p persister) {
	t.Helper()
	ctx := context.Background()
	require.False(t, p.IsInterfaceNil())

	empty, err := p.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(0), empty.LastUpdate)
	require.Empty(t, empty.Groups)

	h := model.NewHistory()
	h.RepoURL = "https://github.com/vorner/arc-swap"
	h.LastUpdate = 300
	h.Groups["Track benchmarks"] = []model.BenchRun{
		createRun("rev-b", 300, 17, 33),
		createRun("rev-a", 100, 18),
	}
	require.NoError(t, p.Save(ctx, h))

	loaded, err := p.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, h, loaded)

	// saving the same snapshot again must not duplicate anything
	require.NoError(t, p.Save(ctx, h))

	h.LastUpdate = 400
	h.Groups["Track benchmarks"] = append(h.Groups["Track benchmarks"], createRun("rev-c", 400, 20, 30, 40))
	h.Groups["Background"] = []model.BenchRun{createRun("rev-a", 350, 1)}
	require.NoError(t, p.Save(ctx, h))

	loaded, err = p.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, h, loaded)

	shorter := model.NewHistory()
	shorter.Groups["Track benchmarks"] = h.Groups["Track benchmarks"][:1]
	err = p.Save(ctx, shorter)
	require.True(t, errors.Is(err, ErrHistoryDiverged))

	loaded, err = p.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded.Groups["Track benchmarks"], 3)
}

func TestSQLitePersister_ReopenFromFile(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "db", "history.db")

	p, err := NewSQLitePersister(dbPath)
	require.NoError(t, err)

	h := model.NewHistory()
	h.LastUpdate = 10
	h.Groups["g"] = []model.BenchRun{createRun("rev-1", 10, 5)}
	require.NoError(t, p.Save(ctx, h))
	require.NoError(t, p.Close())

	p, err = NewSQLitePersister(dbPath)
	require.NoError(t, err)
	defer func() {
		_ = p.Close()
	}()

	loaded, err := p.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, h, loaded)
}

func TestSQLitePersister_LastUpdateNeverDecreases(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p, err := NewSQLitePersister(":memory:")
	require.NoError(t, err)
	defer func() {
		_ = p.Close()
	}()

	h := model.NewHistory()
	h.LastUpdate = 100
	require.NoError(t, p.Save(ctx, h))

	h.LastUpdate = 50
	require.NoError(t, p.Save(ctx, h))

	loaded, err := p.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(100), loaded.LastUpdate)
}

func TestNewRedisPersister_NilClient(t *testing.T) {
	t.Parallel()

	p, err := NewRedisPersister(nil, "test")
	require.Nil(t, p)
	require.Equal(t, ErrNilRedisClient, err)
}

func TestRedisPersister_CorruptedRun(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	p, err := NewRedisPersister(client, "")
	require.NoError(t, err)
	defer func() {
		_ = p.Close()
	}()

	_, err = mr.SAdd("groups", "g")
	require.NoError(t, err)
	_, err = mr.Push("group:g", "{not json")
	require.NoError(t, err)

	_, err = p.Load(context.Background())
	require.True(t, errors.Is(err, ErrCorruptedHistory))
}

func TestDisabledPersister(t *testing.T) {
	t.Parallel()

	p := NewDisabledPersister()
	require.False(t, p.IsInterfaceNil())

	h := model.NewHistory()
	h.Groups["g"] = []model.BenchRun{createRun("rev-1", 10, 5)}
	require.NoError(t, p.Save(context.Background(), h))

	loaded, err := p.Load(context.Background())
	require.NoError(t, err)
	require.Empty(t, loaded.Groups)
	require.NoError(t, p.Close())
}
