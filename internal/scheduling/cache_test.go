package scheduling

import (
	"context"
	"reflect"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRedisSlotCacheRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewRedisSlotCache(client, time.Minute)
	ctx := context.Background()

	key := branchSlotKey("vigan", "2026-01-05")
	if _, ok, err := cache.Get(ctx, key); err != nil || ok {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}

	slots := []string{"08:00", "08:30", "09:00"}
	if err := cache.Set(ctx, key, slots); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	got, ok, err := cache.Get(ctx, key)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if !reflect.DeepEqual(got, slots) {
		t.Fatalf("unexpected cached slots: %v", got)
	}

	mr.FastForward(2 * time.Minute)
	if _, ok, _ := cache.Get(ctx, key); ok {
		t.Fatal("expected entry to expire")
	}
}

func TestRedisSlotCacheInvalidateBranch(t *testing.T) {
	mr := miniredis.RunT(t)
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewRedisSlotCache(client, 0)
	ctx := context.Background()

	if err := cache.Set(ctx, branchSlotKey("cabugao", "2026-01-06"), []string{"10:00"}); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := cache.Set(ctx, branchSlotKey("cabugao", "2026-01-07"), []string{"11:00"}); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := cache.Set(ctx, branchSlotKey("vigan", "2026-01-06"), []string{"09:00"}); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	if err := cache.InvalidateBranch(ctx, "cabugao"); err != nil {
		t.Fatalf("invalidate failed: %v", err)
	}
	if _, ok, _ := cache.Get(ctx, branchSlotKey("cabugao", "2026-01-06")); ok {
		t.Fatal("expected cabugao entries removed")
	}
	if _, ok, _ := cache.Get(ctx, branchSlotKey("cabugao", "2026-01-07")); ok {
		t.Fatal("expected cabugao entries removed")
	}
	if _, ok, _ := cache.Get(ctx, branchSlotKey("vigan", "2026-01-06")); !ok {
		t.Fatal("expected other branches untouched")
	}
}

func TestResolverUsesSlotCacheForBranchQueries(t *testing.T) {
	mr := miniredis.RunT(t)
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewRedisSlotCache(client, time.Minute)

	branchCalls := 0
	store := &stubStore{
		branchHours: func(branch string, weekday time.Weekday) (DayHours, error) {
			branchCalls++
			return DayHours{Open: "08:00", Close: "09:00"}, nil
		},
	}
	r := NewResolver(store, nil, WithSlotCache(cache))
	ctx := context.Background()

	first := r.AvailableTimeSlots(ctx, "", monday, "vigan")
	second := r.AvailableTimeSlots(ctx, "", monday, "vigan")
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("cache returned different slots: %v vs %v", first, second)
	}
	if branchCalls != 1 {
		t.Fatalf("expected second query served from cache, store hit %d times", branchCalls)
	}
}
