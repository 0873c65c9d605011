// Package score maintains the per-driver behavior score: a bounded integer
// mutated only by discrete event deltas.
package score

import (
	"context"
	"sync"

	"driveassist/internal/apperr"
	"driveassist/internal/models"
)

const (
	MinScore = 0
	MaxScore = 100

	// DefaultScore applies when a user row carries no score at all.
	DefaultScore = 50
)

// deltas maps event types to score changes. Unknown types score 0 but the
// event is still recorded.
var deltas = map[string]int{
	"sudden_acceleration":   -4,
	"sudden_braking":        -2,
	"speed_limit_violation": -4,
	"collision_warning":     -2,
	"safe_driving":          +2,
}

// Delta returns the score change for an event type.
func Delta(eventType string) int {
	return deltas[eventType]
}

// Clamp bounds a score to [MinScore, MaxScore].
func Clamp(s int) int {
	if s < MinScore {
		return MinScore
	}
	if s > MaxScore {
		return MaxScore
	}
	return s
}

// Store abstracts the persistence the engine needs. SaveEventAndScore must
// apply both writes atomically; a nil newScore means the score is unchanged.
type Store interface {
	// GetScore returns the user's score (nil when the row has none) and
	// whether the user exists.
	GetScore(ctx context.Context, userID uint) (*int, bool, error)
	SaveEventAndScore(ctx context.Context, event *models.EventLog, newScore *int) error
}

// Cache receives the freshest score after each change. Implementations must
// tolerate being nil-backed; failures are advisory only.
type Cache interface {
	SetScore(ctx context.Context, userID uint, score int)
}

// Engine applies event deltas to driver scores. The read-modify-write per
// user is serialized with a keyed lock so concurrent events cannot lose an
// update.
type Engine struct {
	store Store
	cache Cache

	mu    sync.Mutex
	locks map[uint]*userLock
}

type userLock struct {
	sync.Mutex
	refs int
}

func NewEngine(store Store, cache Cache) *Engine {
	return &Engine{store: store, cache: cache, locks: make(map[uint]*userLock)}
}

// Apply records the event and applies its delta to the user's score,
// clamped to [0,100]. The event is persisted even when the delta is zero.
// Returns the applied delta.
func (e *Engine) Apply(ctx context.Context, event *models.EventLog) (int, error) {
	if event.UserID == 0 {
		return 0, apperr.Validation("user_id is required")
	}
	if event.EventType == "" {
		return 0, apperr.Validation("event_type is required")
	}

	unlock := e.lockUser(event.UserID)
	defer unlock()

	current, found, err := e.store.GetScore(ctx, event.UserID)
	if err != nil {
		return 0, apperr.Storage("reading driver score", err)
	}
	if !found {
		return 0, apperr.NotFound("user %d not found", event.UserID)
	}

	delta := Delta(event.EventType)

	var newScore *int
	if delta != 0 {
		cur := DefaultScore
		if current != nil {
			cur = *current
		}
		s := Clamp(cur + delta)
		newScore = &s
	}

	if err := e.store.SaveEventAndScore(ctx, event, newScore); err != nil {
		return 0, apperr.Storage("recording event", err)
	}

	if newScore != nil && e.cache != nil {
		e.cache.SetScore(ctx, event.UserID, *newScore)
	}
	return delta, nil
}

// lockUser takes the per-user lock, creating and reference-counting the
// entry so the map does not grow without bound.
func (e *Engine) lockUser(userID uint) func() {
	e.mu.Lock()
	l, ok := e.locks[userID]
	if !ok {
		l = &userLock{}
		e.locks[userID] = l
	}
	l.refs++
	e.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		e.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(e.locks, userID)
		}
		e.mu.Unlock()
	}
}
