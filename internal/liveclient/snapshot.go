package liveclient

import (
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/shandysiswandi/levelup/internal/pkg/clock"
	"go.uber.org/atomic"
)

// Snapshot is the client-local view of a learner. Nil scalars are not known yet.
type Snapshot struct {
	Online bool

	Level          *int64
	Points         *int64
	CurrentStreak  *int64
	LongestStreak  *int64
	Rank           *int64
	IsPremium      *bool
	Plan           string
	RecentActivity []Activity
	WeeklyStats    *Weekly

	Leaderboard []LeaderboardEntry
	Settings    map[string]any
	// Progress holds completion percent keyed by "<kind>/<slug>".
	Progress map[string]int64

	UpdatedAt time.Time
}

func (s Snapshot) clone() Snapshot {
	out := s
	out.Level = clonePtr(s.Level)
	out.Points = clonePtr(s.Points)
	out.CurrentStreak = clonePtr(s.CurrentStreak)
	out.LongestStreak = clonePtr(s.LongestStreak)
	out.Rank = clonePtr(s.Rank)
	out.IsPremium = clonePtr(s.IsPremium)
	out.WeeklyStats = clonePtr(s.WeeklyStats)
	out.RecentActivity = slices.Clone(s.RecentActivity)
	out.Leaderboard = slices.Clone(s.Leaderboard)
	out.Settings = maps.Clone(s.Settings)
	out.Progress = maps.Clone(s.Progress)
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func mergePtr[T any](dst **T, src *T) {
	if src != nil {
		*dst = clonePtr(src)
	}
}

// Store guards the Snapshot. Every write is an additive merge except the leaderboard,
// which is replaced as a whole.
type Store struct {
	clock clock.Clocker

	mu   sync.RWMutex
	snap Snapshot

	// level only moves up; it is read without the lock by level-up detection.
	level atomic.Int64

	changed chan struct{}
}

func NewStore(clk clock.Clocker) *Store {
	return &Store{clock: clk, changed: make(chan struct{}, 1)}
}

// Snapshot returns a deep copy of the current view.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.clone()
}

// Changed receives a value after one or more writes. Bursts coalesce into one signal.
func (s *Store) Changed() <-chan struct{} {
	return s.changed
}

// LastLevel returns the highest level observed so far, zero when none.
func (s *Store) LastLevel() int64 {
	return s.level.Load()
}

// AdvanceLevel records level when it is higher than the last known one and returns the
// previous value and whether it moved.
func (s *Store) AdvanceLevel(level int64) (int64, bool) {
	for {
		prev := s.level.Load()
		if level <= prev {
			return prev, false
		}
		if s.level.CompareAndSwap(prev, level) {
			return prev, true
		}
	}
}

func (s *Store) MergeStats(p StatsPayload) {
	if p.Level != nil {
		s.AdvanceLevel(*p.Level)
	}

	s.update(func(snap *Snapshot) {
		mergePtr(&snap.Level, p.Level)
		mergePtr(&snap.Points, p.Points)
		mergePtr(&snap.CurrentStreak, p.CurrentStreak)
		mergePtr(&snap.LongestStreak, p.LongestStreak)
		mergePtr(&snap.Rank, p.Rank)
		mergePtr(&snap.IsPremium, p.IsPremium)
		mergePtr(&snap.WeeklyStats, p.WeeklyStats)
		if p.RecentActivity != nil {
			snap.RecentActivity = slices.Clone(p.RecentActivity)
		}
	})
}

func (s *Store) ReplaceLeaderboard(entries []LeaderboardEntry) {
	s.update(func(snap *Snapshot) {
		snap.Leaderboard = slices.Clone(entries)
	})
}

func (s *Store) MergeProgress(p ProgressPayload) {
	s.update(func(snap *Snapshot) {
		if snap.Progress == nil {
			snap.Progress = make(map[string]int64)
		}
		snap.Progress[p.Kind+"/"+p.Slug] = p.Percent
	})
}

func (s *Store) MergeSettings(settings map[string]any) {
	if len(settings) == 0 {
		return
	}
	s.update(func(snap *Snapshot) {
		if snap.Settings == nil {
			snap.Settings = make(map[string]any, len(settings))
		}
		maps.Copy(snap.Settings, settings)
	})
}

func (s *Store) MergePremium(p PremiumPayload) {
	s.update(func(snap *Snapshot) {
		mergePtr(&snap.IsPremium, p.IsPremium)
		if p.Plan != "" {
			snap.Plan = p.Plan
		}
	})
}

func (s *Store) SetOnline(online bool) {
	s.update(func(snap *Snapshot) { snap.Online = online })
}

// Reset forgets everything, used when a different session starts.
func (s *Store) Reset() {
	s.level.Store(0)
	s.update(func(snap *Snapshot) { *snap = Snapshot{} })
}

func (s *Store) update(fn func(*Snapshot)) {
	s.mu.Lock()
	fn(&s.snap)
	s.snap.UpdatedAt = s.clock.Now()
	s.mu.Unlock()

	select {
	case s.changed <- struct{}{}:
	default:
	}
}
