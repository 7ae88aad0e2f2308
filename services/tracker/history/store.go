package history

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/iulianpascalau/bench-tracker/services/tracker/model"
	logger "github.com/multiversx/mx-chain-logger-go"
)

var log = logger.GetOrCreate("history")

// ErrDuplicateRevision signals that the group already holds a run for the revision
var ErrDuplicateRevision = errors.New("duplicate revision")

// ErrEmptyGroup signals an append without a group label
var ErrEmptyGroup = errors.New("empty group label")

// Outcome is the result of an append
type Outcome int

const (
	// Accepted means the run was appended to its group
	Accepted Outcome = iota
	// RejectedDuplicateRevision means the group already had a run for that revision id
	RejectedDuplicateRevision
	// RejectedInvalidRun means the run failed structural validation
	RejectedInvalidRun
)

// String returns the wire name of the outcome
func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case RejectedDuplicateRevision:
		return "duplicate-revision"
	case RejectedInvalidRun:
		return "invalid-run"
	default:
		return fmt.Sprintf("unknown(%d)", int(o))
	}
}

// groupRuns holds the timeline of one group. Writers serialize on mut, readers only load runs
type groupRuns struct {
	mut  sync.Mutex
	ids  map[string]struct{}
	runs atomic.Pointer[[]model.BenchRun]
}

func newGroupRuns() *groupRuns {
	g := &groupRuns{
		ids: make(map[string]struct{}),
	}
	empty := make([]model.BenchRun, 0)
	g.runs.Store(&empty)

	return g
}

// load returns a deep copy of the published runs, readers never share the stored arrays
func (g *groupRuns) load() []model.BenchRun {
	runs := *g.runs.Load()
	copied := make([]model.BenchRun, 0, len(runs))
	for _, run := range runs {
		copied = append(copied, cloneRun(run))
	}

	return copied
}

type store struct {
	mutGroups  sync.RWMutex
	groups     map[string]*groupRuns
	lastUpdate atomic.Int64
	repoURL    string
}

// NewStore creates an empty append store
func NewStore() *store {
	return &store{
		groups: make(map[string]*groupRuns),
	}
}

// NewStoreFromSnapshot creates an append store seeded with a previously persisted history
func NewStoreFromSnapshot(h model.History) *store {
	s := NewStore()
	s.repoURL = h.RepoURL
	s.advanceLastUpdate(h.LastUpdate)

	for name, runs := range h.Groups {
		g := newGroupRuns()
		loaded := make([]model.BenchRun, 0, len(runs))
		for _, run := range runs {
			_, exists := g.ids[run.Revision.ID]
			if exists {
				log.Warn("dropping duplicate revision from snapshot", "group", name, "revision", run.Revision.ID)
				continue
			}

			g.ids[run.Revision.ID] = struct{}{}
			loaded = append(loaded, cloneRun(run))
			s.advanceLastUpdate(run.Timestamp)
		}
		g.runs.Store(&loaded)
		s.groups[name] = g
	}

	return s
}

func (s *store) getGroup(name string) (*groupRuns, bool) {
	s.mutGroups.RLock()
	defer s.mutGroups.RUnlock()

	g, found := s.groups[name]
	return g, found
}

func (s *store) getOrCreateGroup(name string) *groupRuns {
	g, found := s.getGroup(name)
	if found {
		return g
	}

	s.mutGroups.Lock()
	defer s.mutGroups.Unlock()

	g, found = s.groups[name]
	if !found {
		g = newGroupRuns()
		s.groups[name] = g
	}

	return g
}

// Append validates the run and appends it to the group, creating the group if needed.
// On acceptance the returned position is the index of the run inside the group, otherwise -1.
func (s *store) Append(group string, run model.BenchRun) (Outcome, int, error) {
	if len(group) == 0 {
		return RejectedInvalidRun, -1, fmt.Errorf("%w: %w", model.ErrInvalidRun, ErrEmptyGroup)
	}

	err := model.ValidateRun(run)
	if err != nil {
		return RejectedInvalidRun, -1, err
	}

	g := s.getOrCreateGroup(group)

	g.mut.Lock()
	defer g.mut.Unlock()

	_, exists := g.ids[run.Revision.ID]
	if exists {
		return RejectedDuplicateRevision, -1, fmt.Errorf("%w %s in group %s", ErrDuplicateRevision, run.Revision.ID, group)
	}

	stored := cloneRun(run)
	current := *g.runs.Load()
	next := append(current[:len(current):len(current)], stored)
	g.ids[run.Revision.ID] = struct{}{}

	// lastUpdate moves before the run becomes visible so no snapshot shows a run newer than it
	s.advanceLastUpdate(run.Timestamp)
	g.runs.Store(&next)

	return Accepted, len(next) - 1, nil
}

func (s *store) advanceLastUpdate(timestamp int64) {
	for {
		current := s.lastUpdate.Load()
		if timestamp <= current {
			return
		}
		if s.lastUpdate.CompareAndSwap(current, timestamp) {
			return
		}
	}
}

// Get returns the runs of the group in stored order. Unknown groups yield an empty slice
func (s *store) Get(group string) []model.BenchRun {
	g, found := s.getGroup(group)
	if !found {
		return make([]model.BenchRun, 0)
	}

	return g.load()
}

// Groups returns the sorted group labels
func (s *store) Groups() []string {
	s.mutGroups.RLock()
	names := make([]string, 0, len(s.groups))
	for name := range s.groups {
		names = append(names, name)
	}
	s.mutGroups.RUnlock()

	sort.Strings(names)

	return names
}

// LastUpdate returns the timestamp of the most recent accepted run
func (s *store) LastUpdate() int64 {
	return s.lastUpdate.Load()
}

// Snapshot returns a detached copy of the whole history
func (s *store) Snapshot() model.History {
	s.mutGroups.RLock()
	defer s.mutGroups.RUnlock()

	h := model.History{
		RepoURL: s.repoURL,
		Groups:  make(map[string][]model.BenchRun, len(s.groups)),
	}
	for name, g := range s.groups {
		h.Groups[name] = g.load()
	}
	h.LastUpdate = s.lastUpdate.Load()

	return h
}

// IsInterfaceNil returns true if the value under the interface is nil
func (s *store) IsInterfaceNil() bool {
	return s == nil
}

func cloneRun(run model.BenchRun) model.BenchRun {
	run.Metrics = append(make([]model.Metric, 0, len(run.Metrics)), run.Metrics...)
	return run
}
