package rate

import (
	"context"
	"sync"
	"testing"
	"time"

	"reconflow/internal/testutil"
)

func TestNew_Defaults(t *testing.T) {
	l := New(0, 0)
	testutil.AssertEqual(t, l.Rate(), 1.0, "rate floor")
	testutil.AssertTrue(t, l.Allow(), "starts full")
	testutil.AssertFalse(t, l.Allow(), "burst of one")
}

func TestLimiter_Burst(t *testing.T) {
	l := New(1, 3)
	for i := 0; i < 3; i++ {
		testutil.AssertTrue(t, l.Allow(), "within burst")
	}
	testutil.AssertFalse(t, l.Allow(), "burst exhausted")
}

func TestLimiter_WaitRefills(t *testing.T) {
	l := New(50, 1)
	testutil.AssertTrue(t, l.Allow(), "first token")

	start := time.Now()
	testutil.AssertNoError(t, l.Wait(context.Background()), "wait")
	testutil.AssertTrue(t, time.Since(start) >= 10*time.Millisecond, "waited for refill")
}

func TestLimiter_WaitCancelled(t *testing.T) {
	l := New(0.1, 1)
	l.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	testutil.AssertErrorIs(t, l.Wait(ctx), context.DeadlineExceeded, "context wins")
}

func TestGroup_PerKey(t *testing.T) {
	g := NewGroup(0.1, 1)
	ctx := context.Background()

	testutil.AssertNoError(t, g.Wait(ctx, "a.example.com"), "first host")
	testutil.AssertNoError(t, g.Wait(ctx, "b.example.com"), "second host has its own bucket")
	testutil.AssertEqual(t, g.Len(), 2, "two limiters")

	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	testutil.AssertError(t, g.Wait(short, "a.example.com"), "same host throttled")
}

func TestGroup_Disabled(t *testing.T) {
	var nilGroup *Group
	testutil.AssertNoError(t, nilGroup.Wait(context.Background(), "x"), "nil group")
	testutil.AssertNoError(t, NewGroup(0, 0).Wait(context.Background(), "x"), "zero rate")
}

func TestLimiter_ConcurrentAccess(t *testing.T) {
	l := New(1000, 10)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.Wait(context.Background())
		}()
	}
	wg.Wait()
}
