package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/iulianpascalau/bench-tracker/services/tracker/model"
	"github.com/redis/go-redis/v9"
)

const (
	lastUpdateField = "lastUpdate"
	repoURLField    = "repoUrl"
)

// redisPersister keeps every group as a redis list of JSON encoded runs, in stored order
type redisPersister struct {
	rdb       redis.UniversalClient
	keyPrefix string
}

// NewRedisPersister creates a redis backed history persister
func NewRedisPersister(rdb redis.UniversalClient, keyPrefix string) (*redisPersister, error) {
	if rdb == nil {
		return nil, ErrNilRedisClient
	}

	return &redisPersister{
		rdb:       rdb,
		keyPrefix: keyPrefix,
	}, nil
}

func (r *redisPersister) key(parts ...string) string {
	if len(r.keyPrefix) == 0 {
		return strings.Join(parts, ":")
	}

	return r.keyPrefix + ":" + strings.Join(parts, ":")
}

func (r *redisPersister) groupsKey() string {
	return r.key("groups")
}

func (r *redisPersister) metaKey() string {
	return r.key("meta")
}

func (r *redisPersister) groupKey(group string) string {
	return r.key("group", group)
}

// Save appends to redis the runs of the snapshot that are not yet stored
func (r *redisPersister) Save(ctx context.Context, h model.History) error {
	tails := make(map[string][]interface{}, len(h.Groups))
	for group, runs := range h.Groups {
		numStored, err := r.rdb.LLen(ctx, r.groupKey(group)).Result()
		if err != nil {
			return fmt.Errorf("failed to count stored runs of %s: %w", group, err)
		}
		if int(numStored) > len(runs) {
			return fmt.Errorf("%w: group %s has %d stored runs, snapshot has %d", ErrHistoryDiverged, group, numStored, len(runs))
		}

		tail := make([]interface{}, 0, len(runs)-int(numStored))
		for _, run := range runs[numStored:] {
			encoded, errMarshal := json.Marshal(run)
			if errMarshal != nil {
				return fmt.Errorf("failed to encode run %s: %w", run.Revision.ID, errMarshal)
			}
			tail = append(tail, encoded)
		}
		tails[group] = tail
	}

	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for group, tail := range tails {
			pipe.SAdd(ctx, r.groupsKey(), group)
			if len(tail) > 0 {
				pipe.RPush(ctx, r.groupKey(group), tail...)
			}
		}
		pipe.HSet(ctx, r.metaKey(), lastUpdateField, h.LastUpdate, repoURLField, h.RepoURL)

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save history to redis: %w", err)
	}

	return nil
}

// Load reads the whole persisted history. Missing keys yield an empty history
func (r *redisPersister) Load(ctx context.Context) (model.History, error) {
	h := model.NewHistory()

	meta, err := r.rdb.HGetAll(ctx, r.metaKey()).Result()
	if err != nil {
		return model.History{}, fmt.Errorf("failed to read history metadata: %w", err)
	}
	if value, found := meta[lastUpdateField]; found {
		h.LastUpdate, err = strconv.ParseInt(value, 10, 64)
		if err != nil {
			return model.History{}, fmt.Errorf("%w: last update %q", ErrCorruptedHistory, value)
		}
	}
	h.RepoURL = meta[repoURLField]

	groups, err := r.rdb.SMembers(ctx, r.groupsKey()).Result()
	if err != nil {
		return model.History{}, fmt.Errorf("failed to read groups: %w", err)
	}

	for _, group := range groups {
		encodedRuns, errRange := r.rdb.LRange(ctx, r.groupKey(group), 0, -1).Result()
		if errRange != nil {
			return model.History{}, fmt.Errorf("failed to read runs of %s: %w", group, errRange)
		}

		runs := make([]model.BenchRun, 0, len(encodedRuns))
		for idx, encoded := range encodedRuns {
			var run model.BenchRun
			err = json.Unmarshal([]byte(encoded), &run)
			if err != nil {
				return model.History{}, fmt.Errorf("%w: run %d of %s: %v", ErrCorruptedHistory, idx, group, err)
			}
			runs = append(runs, run)
		}
		h.Groups[group] = runs
	}

	return h, nil
}

// Close closes the redis client
func (r *redisPersister) Close() error {
	return r.rdb.Close()
}

// IsInterfaceNil returns true if the value under the interface is nil
func (r *redisPersister) IsInterfaceNil() bool {
	return r == nil
}
