package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

type countingSweeper struct {
	mu    sync.Mutex
	calls int
	idle  time.Duration
}

func (s *countingSweeper) Sweep(idle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.idle = idle
	return 1
}

func (s *countingSweeper) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestBoardSweeperStopsWithContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := &countingSweeper{}
	w := NewBoardSweeper(s, 30*time.Minute, nil)
	w.tickInterval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return s.Calls() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	s.mu.Lock()
	assert.Equal(t, 30*time.Minute, s.idle)
	s.mu.Unlock()
}
