package pricing

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SearchCounter tracks recent search/lock-attempt volume per venue. The
// count feeds the demand multiplier.
type SearchCounter interface {
	Record(ctx context.Context, venueID uuid.UUID) error
	Count(ctx context.Context, venueID uuid.UUID) (int64, error)
}

// PopularityCache holds the precomputed historical multiplier per venue.
type PopularityCache interface {
	Set(ctx context.Context, venueID uuid.UUID, multiplier float64, ttl time.Duration) error
	// Get returns the cached multiplier, or 0 when absent.
	Get(ctx context.Context, venueID uuid.UUID) (float64, error)
}

const (
	searchKeyPrefix     = "venue_search:"
	popularityKeyPrefix = "venue_popularity:"
)

// RedisSignals implements SearchCounter and PopularityCache on a shared
// Redis instance. The search counter is a fixed window: INCR plus an
// expiry set when the key is first created.
type RedisSignals struct {
	client *redis.Client
	window time.Duration
}

func NewRedisSignals(client *redis.Client, window time.Duration) *RedisSignals {
	return &RedisSignals{client: client, window: window}
}

func (s *RedisSignals) Record(ctx context.Context, venueID uuid.UUID) error {
	key := searchKeyPrefix + venueID.String()
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return err
	}
	if count == 1 {
		return s.client.Expire(ctx, key, s.window).Err()
	}
	return nil
}

func (s *RedisSignals) Count(ctx context.Context, venueID uuid.UUID) (int64, error) {
	val, err := s.client.Get(ctx, searchKeyPrefix+venueID.String()).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(val, 10, 64)
}

func (s *RedisSignals) Set(ctx context.Context, venueID uuid.UUID, multiplier float64, ttl time.Duration) error {
	return s.client.Set(ctx, popularityKeyPrefix+venueID.String(), strconv.FormatFloat(multiplier, 'f', -1, 64), ttl).Err()
}

func (s *RedisSignals) Get(ctx context.Context, venueID uuid.UUID) (float64, error) {
	val, err := s.client.Get(ctx, popularityKeyPrefix+venueID.String()).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(val, 64)
}

// MemorySignals is the in-process fallback when Redis is not configured.
// The search counter keeps per-venue timestamps, so the window is truly
// sliding here.
type MemorySignals struct {
	mu         sync.Mutex
	window     time.Duration
	searches   map[uuid.UUID][]time.Time
	popularity map[uuid.UUID]memoryMultiplier
}

type memoryMultiplier struct {
	value    float64
	deadline time.Time
}

func NewMemorySignals(window time.Duration) *MemorySignals {
	return &MemorySignals{
		window:     window,
		searches:   make(map[uuid.UUID][]time.Time),
		popularity: make(map[uuid.UUID]memoryMultiplier),
	}
}

func (s *MemorySignals) Record(_ context.Context, venueID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.searches[venueID] = append(s.prune(venueID), time.Now())
	return nil
}

func (s *MemorySignals) Count(_ context.Context, venueID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	live := s.prune(venueID)
	s.searches[venueID] = live
	return int64(len(live)), nil
}

// prune drops timestamps older than the window. Caller holds the mutex.
func (s *MemorySignals) prune(venueID uuid.UUID) []time.Time {
	cutoff := time.Now().Add(-s.window)
	stamps := s.searches[venueID]
	live := stamps[:0]
	for _, ts := range stamps {
		if ts.After(cutoff) {
			live = append(live, ts)
		}
	}
	return live
}

func (s *MemorySignals) Set(_ context.Context, venueID uuid.UUID, multiplier float64, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.popularity[venueID] = memoryMultiplier{value: multiplier, deadline: time.Now().Add(ttl)}
	return nil
}

func (s *MemorySignals) Get(_ context.Context, venueID uuid.UUID) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.popularity[venueID]
	if !ok || !time.Now().Before(entry.deadline) {
		return 0, nil
	}
	return entry.value, nil
}
