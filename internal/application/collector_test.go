package app

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"facelink/internal/domain/entity"
	"facelink/internal/infrastructure/channel"
)

func startCollector(t *testing.T) (*ResultCollector, *channel.MemoryChannel) {
	t.Helper()
	results := channel.NewMemoryChannel()
	collector := NewResultCollector(results, 10*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go collector.Run(ctx)

	return collector, results
}

func TestResultCollector_SurfacesExactlyOneOfDuplicates(t *testing.T) {
	collector, results := startCollector(t)

	type awaited struct {
		result *entity.RecognitionResult
		err    error
	}
	await := make(chan awaited, 1)
	go func() {
		r, err := collector.AwaitResult(context.Background(), "f-1", time.Now().Add(time.Second))
		await <- awaited{r, err}
	}()
	require.Eventually(t, func() bool { return collector.PendingCount() == 1 }, time.Second, 5*time.Millisecond)

	// Three duplicate deliveries of the same terminal outcome.
	outcome := entity.NewMatchResult("f-1", "cam-1", "alice", 0.9)
	for i := 0; i < 3; i++ {
		publishJSON(t, results, outcome)
	}

	got := <-await
	require.NoError(t, got.err)
	require.Equal(t, entity.OutcomeMatch, got.result.Outcome)
	require.Equal(t, "alice", got.result.Identity)

	// The two leftovers are discarded and acked, never surfaced.
	require.Eventually(t, func() bool {
		return results.Len() == 0 && results.Outstanding() == 0
	}, time.Second, 10*time.Millisecond)
	require.Zero(t, collector.PendingCount())
}

func TestResultCollector_RegisteredResultSurvivesEarlyDispatch(t *testing.T) {
	collector, results := startCollector(t)

	await, err := collector.Register("f-fast", time.Now().Add(time.Second))
	require.NoError(t, err)

	// The result is fetched, dispatched and acked before the caller ever
	// blocks in Wait. Registration happened first, so it is not discarded.
	publishJSON(t, results, entity.NewMatchResult("f-fast", "cam-1", "alice", 0.91))
	require.Eventually(t, func() bool {
		return results.Len() == 0 && results.Outstanding() == 0
	}, time.Second, 5*time.Millisecond)
	require.Zero(t, collector.PendingCount())

	r, err := await.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, entity.OutcomeMatch, r.Outcome)
	require.Equal(t, "alice", r.Identity)
}

func TestResultCollector_OutOfOrderDelivery(t *testing.T) {
	collector, results := startCollector(t)

	type awaited struct {
		result *entity.RecognitionResult
		err    error
	}
	awaitA := make(chan awaited, 1)
	awaitB := make(chan awaited, 1)
	go func() {
		r, err := collector.AwaitResult(context.Background(), "frame-a", time.Now().Add(time.Second))
		awaitA <- awaited{r, err}
	}()
	go func() {
		r, err := collector.AwaitResult(context.Background(), "frame-b", time.Now().Add(time.Second))
		awaitB <- awaited{r, err}
	}()

	require.Eventually(t, func() bool { return collector.PendingCount() == 2 }, time.Second, 5*time.Millisecond)

	// B's result arrives before A's.
	publishJSON(t, results, entity.NewNoSubjectResult("frame-b", "cam-1"))
	publishJSON(t, results, entity.NewMatchResult("frame-a", "cam-1", "bob", 0.8))

	a := <-awaitA
	require.NoError(t, a.err)
	require.Equal(t, entity.OutcomeMatch, a.result.Outcome)
	require.Equal(t, "frame-a", a.result.FrameID)

	b := <-awaitB
	require.NoError(t, b.err)
	require.Equal(t, entity.OutcomeNoSubject, b.result.Outcome)
	require.Equal(t, "frame-b", b.result.FrameID)
}

func TestResultCollector_DeadlineExpiresThenLateResultIsDiscarded(t *testing.T) {
	collector, results := startCollector(t)

	_, err := collector.AwaitResult(context.Background(), "f-late", time.Now().Add(50*time.Millisecond))
	require.ErrorIs(t, err, ErrTimeout)
	require.Zero(t, collector.PendingCount(), "expired entries are evicted")

	// The result shows up after eviction: discarded, acked, never surfaced.
	publishJSON(t, results, entity.NewMatchResult("f-late", "cam-1", "alice", 0.9))
	require.Eventually(t, func() bool {
		return results.Len() == 0 && results.Outstanding() == 0
	}, time.Second, 10*time.Millisecond)
}

func TestResultCollector_UnknownFrameIsDiscarded(t *testing.T) {
	collector, results := startCollector(t)

	publishJSON(t, results, entity.NewNoSubjectResult("never-awaited", "cam-1"))
	require.Eventually(t, func() bool {
		return results.Len() == 0 && results.Outstanding() == 0
	}, time.Second, 10*time.Millisecond)
	require.Zero(t, collector.PendingCount())
}

func TestResultCollector_RejectsDoubleAwait(t *testing.T) {
	collector, _ := startCollector(t)

	go collector.AwaitResult(context.Background(), "f-dup", time.Now().Add(time.Second))
	require.Eventually(t, func() bool { return collector.PendingCount() == 1 }, time.Second, 5*time.Millisecond)

	_, err := collector.AwaitResult(context.Background(), "f-dup", time.Now().Add(time.Second))
	require.Error(t, err)
}

func TestResultCollector_CallerCancelEvicts(t *testing.T) {
	collector, _ := startCollector(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := collector.AwaitResult(ctx, "f-abandon", time.Now().Add(time.Minute))
		done <- err
	}()
	require.Eventually(t, func() bool { return collector.PendingCount() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
	require.Zero(t, collector.PendingCount())
}
