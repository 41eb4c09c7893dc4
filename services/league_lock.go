package services

import (
	"sort"
	"sync"
)

// LeagueLocker serializes the aggregation and rank-assignment phase per
// league. RankAssigner's copy-current-rank-then-overwrite step is not
// safe under concurrent writers, so two operations touching the same
// league must not interleave; operations on different leagues run
// freely in parallel.
//
// Lock handles live for the process lifetime; the map only grows. The
// number of leagues in play is small enough that this is not a concern.
type LeagueLocker struct {
	mu    sync.Mutex
	locks map[int]*sync.Mutex
}

func NewLeagueLocker() *LeagueLocker {
	return &LeagueLocker{locks: make(map[int]*sync.Mutex)}
}

func (l *LeagueLocker) lockFor(leagueID int) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.locks[leagueID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[leagueID] = lock
	}
	return lock
}

func (l *LeagueLocker) Lock(leagueID int) {
	l.lockFor(leagueID).Lock()
}

func (l *LeagueLocker) Unlock(leagueID int) {
	l.lockFor(leagueID).Unlock()
}

// LockMany acquires the locks for all given leagues in ascending id
// order (a fixed order prevents deadlock between triggers that span
// overlapping league sets) and returns a function releasing them all.
func (l *LeagueLocker) LockMany(leagueIDs []int) (unlock func()) {
	ids := make([]int, len(leagueIDs))
	copy(ids, leagueIDs)
	sort.Ints(ids)

	for _, id := range ids {
		l.Lock(id)
	}
	return func() {
		for i := len(ids) - 1; i >= 0; i-- {
			l.Unlock(ids[i])
		}
	}
}
