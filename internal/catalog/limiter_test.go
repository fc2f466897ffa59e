package catalog

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestImportLimiter_AcquireRelease(t *testing.T) {
	l := newImportLimiter(2, time.Second)
	ctx := context.Background()

	if err := l.acquire(ctx); err != nil {
		t.Fatalf("acquire() error = %v", err)
	}
	if err := l.acquire(ctx); err != nil {
		t.Fatalf("acquire() error = %v", err)
	}
	if got := l.activeCount(); got != 2 {
		t.Errorf("activeCount() = %d, want 2", got)
	}

	l.release()
	if got := l.activeCount(); got != 1 {
		t.Errorf("activeCount() = %d, want 1", got)
	}
	l.release()
}

func TestImportLimiter_FullReturnsErrTooManyImports(t *testing.T) {
	l := newImportLimiter(1, 20*time.Millisecond)
	ctx := context.Background()

	if err := l.acquire(ctx); err != nil {
		t.Fatalf("acquire() error = %v", err)
	}
	defer l.release()

	err := l.acquire(ctx)
	if !errors.Is(err, ErrTooManyImports) {
		t.Fatalf("acquire() error = %v, want ErrTooManyImports", err)
	}
}

func TestImportLimiter_CanceledContextWins(t *testing.T) {
	l := newImportLimiter(1, time.Minute)

	if err := l.acquire(context.Background()); err != nil {
		t.Fatalf("acquire() error = %v", err)
	}
	defer l.release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := l.acquire(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("acquire() error = %v, want context.Canceled", err)
	}
}

func TestImportLimiter_Defaults(t *testing.T) {
	l := newImportLimiter(0, 0)
	if cap(l.semaphore) != defaultMaxConcurrentImports {
		t.Errorf("capacity = %d, want %d", cap(l.semaphore), defaultMaxConcurrentImports)
	}
	if l.maxWait != defaultMaxWaitTime {
		t.Errorf("maxWait = %v, want %v", l.maxWait, defaultMaxWaitTime)
	}
}

func TestImportLimiter_WaitForDrain(t *testing.T) {
	l := newImportLimiter(1, time.Second)
	if err := l.acquire(context.Background()); err != nil {
		t.Fatalf("acquire() error = %v", err)
	}

	go func() {
		time.Sleep(50 * time.Millisecond)
		l.release()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := l.waitForDrain(ctx); err != nil {
		t.Fatalf("waitForDrain() error = %v", err)
	}
}
