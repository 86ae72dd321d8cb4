package lockcache_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/courtside/courtside-api/internal/pkg/lockcache"
)

func TestMemoryPutSingleWinner(t *testing.T) {
	cache := lockcache.NewMemory()
	slotID := uuid.New()

	const workers = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	rejections := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lock := lockcache.SlotLock{
				SlotID:    slotID,
				UserID:    uuid.New(),
				ExpiresAt: time.Now().Add(5 * time.Minute),
			}
			err := cache.Put(context.Background(), slotID, lock, 5*time.Minute)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, lockcache.ErrAlreadyLocked):
				rejections++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("expected exactly 1 winner, got %d", wins)
	}
	if rejections != workers-1 {
		t.Fatalf("expected %d rejections, got %d", workers-1, rejections)
	}
}

func TestMemoryLazyExpiry(t *testing.T) {
	cache := lockcache.NewMemory()
	slotID := uuid.New()
	userA := uuid.New()
	userB := uuid.New()

	lock := lockcache.SlotLock{SlotID: slotID, UserID: userA, ExpiresAt: time.Now().Add(20 * time.Millisecond)}
	if err := cache.Put(context.Background(), slotID, lock, 20*time.Millisecond); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	// Live entry blocks a second lock.
	second := lockcache.SlotLock{SlotID: slotID, UserID: userB, ExpiresAt: time.Now().Add(time.Minute)}
	if err := cache.Put(context.Background(), slotID, second, time.Minute); !errors.Is(err, lockcache.ErrAlreadyLocked) {
		t.Fatalf("expected ErrAlreadyLocked, got %v", err)
	}

	time.Sleep(30 * time.Millisecond)

	// Expired entry is logically absent even before eviction.
	if _, err := cache.Get(context.Background(), slotID); !errors.Is(err, lockcache.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after expiry, got %v", err)
	}

	// And a new lock may be taken.
	if err := cache.Put(context.Background(), slotID, second, time.Minute); err != nil {
		t.Fatalf("expected put to succeed after expiry, got %v", err)
	}
	got, err := cache.Get(context.Background(), slotID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.UserID != userB {
		t.Fatalf("expected lock owned by userB, got %s", got.UserID)
	}
}

func TestMemoryReleaseOwnerChecked(t *testing.T) {
	cache := lockcache.NewMemory()
	slotID := uuid.New()
	holder := uuid.New()
	stranger := uuid.New()

	lock := lockcache.SlotLock{SlotID: slotID, UserID: holder, ExpiresAt: time.Now().Add(time.Minute)}
	if err := cache.Put(context.Background(), slotID, lock, time.Minute); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	// A non-holder's release must leave the lock intact.
	if err := cache.Release(context.Background(), slotID, stranger); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	got, err := cache.Get(context.Background(), slotID)
	if err != nil {
		t.Fatalf("expected lock still live, got %v", err)
	}
	if got.UserID != holder {
		t.Fatalf("expected lock still owned by holder, got %s", got.UserID)
	}

	if err := cache.Release(context.Background(), slotID, holder); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	// Releasing a missing entry is not an error.
	if err := cache.Release(context.Background(), slotID, holder); err != nil {
		t.Fatalf("second release failed: %v", err)
	}

	if _, err := cache.Get(context.Background(), slotID); !errors.Is(err, lockcache.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after release, got %v", err)
	}
}
