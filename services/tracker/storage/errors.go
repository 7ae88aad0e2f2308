package storage

import "errors"

// ErrHistoryDiverged signals a snapshot holding fewer runs than already persisted for a group
var ErrHistoryDiverged = errors.New("persisted history diverged from snapshot")

// ErrCorruptedHistory signals persisted data that cannot be assembled back into ordered runs
var ErrCorruptedHistory = errors.New("corrupted persisted history")

// ErrNilRedisClient signals a missing redis client
var ErrNilRedisClient = errors.New("nil redis client")
