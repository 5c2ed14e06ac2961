package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nikitagorshkov/farmmarket/internal/domain"
)

type stubIdempotencyRepo struct {
	batches []int
	calls   int
	err     error
}

func (s *stubIdempotencyRepo) CreateProcessing(key, requestHash string, ttlAt time.Time) (domain.IdempotencyRecord, error) {
	return domain.IdempotencyRecord{}, nil
}

func (s *stubIdempotencyRepo) Get(key string) (domain.IdempotencyRecord, error) {
	return domain.IdempotencyRecord{}, domain.ErrIdempotencyKeyNotFound
}

func (s *stubIdempotencyRepo) MarkDone(key string, responseBody []byte, httpStatus int) error {
	return nil
}

func (s *stubIdempotencyRepo) MarkFailed(key string, responseBody []byte, httpStatus int) error {
	return nil
}

func (s *stubIdempotencyRepo) DeleteExpired(before time.Time, limit int) (int, error) {
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	if len(s.batches) == 0 {
		return 0, nil
	}
	n := s.batches[0]
	s.batches = s.batches[1:]
	return n, nil
}

var _ domain.IdempotencyRepository = (*stubIdempotencyRepo)(nil)

func TestDeleteExpired_DrainsInBatches(t *testing.T) {
	t.Parallel()

	// Две полные порции и одна неполная: воркер должен остановиться на ней.
	repo := &stubIdempotencyRepo{batches: []int{2, 2, 1}}
	worker := NewCleanupWorker(repo, WithBatchSize(2))

	deleted, err := worker.DeleteExpired(context.Background(), time.Now().UTC())
	if err != nil {
		t.Fatalf("DeleteExpired: %v", err)
	}
	if deleted != 5 {
		t.Fatalf("deleted = %d, want 5", deleted)
	}
	if repo.calls != 3 {
		t.Fatalf("repo calls = %d, want 3", repo.calls)
	}
}

func TestDeleteExpired_PropagatesRepoError(t *testing.T) {
	t.Parallel()

	repo := &stubIdempotencyRepo{err: errors.New("storage is down")}
	worker := NewCleanupWorker(repo)

	if _, err := worker.DeleteExpired(context.Background(), time.Now().UTC()); err == nil {
		t.Fatal("expected error from repo")
	}
}

func TestDeleteExpired_StopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	worker := NewCleanupWorker(&stubIdempotencyRepo{batches: []int{1}})
	_, err := worker.DeleteExpired(ctx, time.Now().UTC())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	worker := NewCleanupWorker(&stubIdempotencyRepo{}, WithInterval(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.Run(ctx)
	}()

	time.Sleep(15 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("cleanup worker did not stop on context cancel")
	}
}
