package workerpool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"reconflow/internal/testutil"
)

func TestPool_BoundsConcurrency(t *testing.T) {
	p := New[int](context.Background(), Config{Workers: 3})
	defer p.Close()

	var current, peak atomic.Int32
	for i := 0; i < 20; i++ {
		i := i
		p.Submit(Task[int]{Name: "job", Run: func(ctx context.Context) (int, error) {
			n := current.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			current.Add(-1)
			return i, nil
		}})
	}

	results := p.Join()
	testutil.AssertEqual(t, len(results), 20, "every task joined")
	testutil.AssertTrue(t, peak.Load() <= 3, "never more than 3 running")
	for i, r := range results {
		testutil.AssertEqual(t, r.Value, i, "submission order kept")
	}
}

func TestPool_FailureDoesNotCancelSiblings(t *testing.T) {
	p := New[string](context.Background(), Config{Workers: 2})
	defer p.Close()

	boom := errors.New("boom")
	p.Submit(Task[string]{Name: "bad", Run: func(ctx context.Context) (string, error) { return "", boom }})
	p.Submit(Task[string]{Name: "panics", Run: func(ctx context.Context) (string, error) { panic("kaboom") }})
	p.Submit(Task[string]{Name: "good", Run: func(ctx context.Context) (string, error) {
		time.Sleep(10 * time.Millisecond)
		return "ok", nil
	}})

	results := p.Join()
	testutil.AssertEqual(t, len(results), 3, "all tasks reported")
	testutil.AssertErrorIs(t, results[0].Err, boom, "returned error kept")
	testutil.AssertError(t, results[1].Err, "panic recovered as error")
	testutil.AssertNoError(t, results[2].Err, "sibling completes")
	testutil.AssertEqual(t, results[2].Value, "ok", "sibling value")
}

func TestPool_JoinIsPerBatch(t *testing.T) {
	p := New[int](context.Background(), Config{Workers: 2})
	defer p.Close()

	p.Submit(Task[int]{Run: func(ctx context.Context) (int, error) { return 1, nil }})
	first := p.Join()
	p.Submit(Task[int]{Run: func(ctx context.Context) (int, error) { return 2, nil }})
	p.Submit(Task[int]{Run: func(ctx context.Context) (int, error) { return 3, nil }})
	second := p.Join()

	testutil.AssertEqual(t, len(first), 1, "first level")
	testutil.AssertEqual(t, len(second), 2, "second level only")
	testutil.AssertEqual(t, len(p.Join()), 0, "nothing pending")
}

func TestPool_HandleWait(t *testing.T) {
	p := New[int](context.Background(), Config{Workers: 1})
	defer p.Close()

	h := p.Submit(Task[int]{Name: "answer", Run: func(ctx context.Context) (int, error) { return 42, nil }})
	res := h.Wait()
	testutil.AssertEqual(t, res.Value, 42, "value")
	testutil.AssertEqual(t, res.Name, "answer", "name")

	select {
	case <-h.Done():
	default:
		t.Fatal("Done should be closed after Wait")
	}
}

func TestPool_SubmitAfterClose(t *testing.T) {
	p := New[int](context.Background(), Config{Workers: 1})
	p.Close()
	p.Close()

	res := p.Submit(Task[int]{Name: "late"}).Wait()
	testutil.AssertErrorIs(t, res.Err, ErrPoolClosed, "closed pool")
}

func TestPool_CloseDrainsQueue(t *testing.T) {
	p := New[int](context.Background(), Config{Workers: 1})

	var done atomic.Int32
	for i := 0; i < 5; i++ {
		p.Submit(Task[int]{Run: func(ctx context.Context) (int, error) {
			done.Add(1)
			return 0, nil
		}})
	}
	p.Close()

	testutil.AssertEqual(t, done.Load(), int32(5), "queued tasks still run")
	testutil.AssertEqual(t, p.Stats().Queued, 0, "queue empty")
}
