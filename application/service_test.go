package application

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestService_FindSeededRecords(t *testing.T) {
	svc := NewService(NewStaticRepository()).WithDelay(0)

	for _, want := range SeedRecords() {
		got, err := svc.Find(context.Background(), want.SubmissionID)
		if err != nil {
			t.Fatalf("find %s: unexpected error: %v", want.SubmissionID, err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("find %s: record mismatch (-want +got):\n%s", want.SubmissionID, diff)
		}
	}
}

func TestService_FindUnderReviewScenario(t *testing.T) {
	svc := NewService(NewStaticRepository()).WithDelay(0)

	rec, err := svc.Find(context.Background(), "RCT-123-456-7890")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Status != "Under Review" || rec.LastUpdatedDate() != "2023-08-25" {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestService_FindUnknown(t *testing.T) {
	svc := NewService(NewStaticRepository()).WithDelay(0)

	for _, id := range []string{"unknown-id", "", "rct-123-456-7890", " RCT-123-456-7890"} {
		if _, err := svc.Find(context.Background(), id); !errors.Is(err, ErrNotFound) {
			t.Fatalf("find %q: expected ErrNotFound, got %v", id, err)
		}
	}
}

func TestService_WaitsForDelay(t *testing.T) {
	svc := NewService(NewStaticRepository()).WithDelay(30 * time.Millisecond)

	start := time.Now()
	if _, err := svc.Find(context.Background(), "RCT-234-567-8901"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Fatalf("expected lookup to take at least the delay, took %s", elapsed)
	}
}

func TestService_ContextCancelledDuringDelay(t *testing.T) {
	repo := &countingFinder{inner: NewStaticRepository()}
	svc := NewService(repo).WithDelay(time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := svc.Find(ctx, "RCT-123-456-7890"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if n := repo.calls.Load(); n != 0 {
		t.Fatalf("expected finder not to be called, got %d calls", n)
	}
}

func TestService_PropagatesFinderError(t *testing.T) {
	boom := errors.New("boom")
	svc := NewService(&stubFinder{err: boom}).WithDelay(0)

	if _, err := svc.Find(context.Background(), "RCT-123-456-7890"); !errors.Is(err, boom) {
		t.Fatalf("expected finder error, got %v", err)
	}
}

func TestService_SharesConcurrentLookups(t *testing.T) {
	release := make(chan struct{})
	repo := &countingFinder{inner: NewStaticRepository(), gate: release}
	svc := NewService(repo).WithDelay(0)

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec, err := svc.Find(context.Background(), "RCT-345-678-9012")
			if err == nil && rec.Status != "Additional Information Required" {
				err = errors.New("unexpected status " + rec.Status)
			}
			errs <- err
		}()
	}

	// Let every caller reach the finder before releasing it.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent find: %v", err)
		}
	}
	if n := repo.calls.Load(); n >= callers {
		t.Fatalf("expected shared finder calls, got %d for %d callers", n, callers)
	}
}

func TestLooksLikeSubmissionID(t *testing.T) {
	cases := map[string]bool{
		"RCT-123-456-7890":  true,
		"RCT-12-456-7890":   false,
		"rct-123-456-7890":  false,
		"RCT-123-456-78901": false,
		"unknown-id":        false,
		"":                  false,
	}
	for id, want := range cases {
		if got := LooksLikeSubmissionID(id); got != want {
			t.Fatalf("LooksLikeSubmissionID(%q) = %v, want %v", id, got, want)
		}
	}
}

type stubFinder struct {
	rec Record
	err error
}

func (s *stubFinder) Find(_ context.Context, _ string) (Record, error) {
	return s.rec, s.err
}

func TestService_CancelledCallerDoesNotFailSharedLookup(t *testing.T) {
	repo := &blockingFinder{inner: NewStaticRepository(), entered: make(chan struct{}), release: make(chan struct{})}
	svc := NewService(repo).WithDelay(0)

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := svc.Find(ctxA, "RCT-123-456-7890")
		errA <- err
	}()
	<-repo.entered

	type result struct {
		rec Record
		err error
	}
	resB := make(chan result, 1)
	go func() {
		rec, err := svc.Find(context.Background(), "RCT-123-456-7890")
		resB <- result{rec, err}
	}()
	// Let the second caller join the in-flight call.
	time.Sleep(20 * time.Millisecond)

	cancelA()
	if err := <-errA; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected first caller cancelled, got %v", err)
	}

	close(repo.release)
	got := <-resB
	if got.err != nil {
		t.Fatalf("second caller: %v", got.err)
	}
	if got.rec.Status != "Under Review" {
		t.Fatalf("unexpected status %q", got.rec.Status)
	}
}

// blockingFinder signals entry and waits for release or its context.
type blockingFinder struct {
	inner   Finder
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingFinder) Find(ctx context.Context, id string) (Record, error) {
	b.once.Do(func() { close(b.entered) })
	select {
	case <-ctx.Done():
		return Record{}, ctx.Err()
	case <-b.release:
	}
	return b.inner.Find(ctx, id)
}

type countingFinder struct {
	inner Finder
	gate  <-chan struct{}
	calls atomic.Int32
}

func (c *countingFinder) Find(ctx context.Context, id string) (Record, error) {
	c.calls.Add(1)
	if c.gate != nil {
		<-c.gate
	}
	return c.inner.Find(ctx, id)
}
