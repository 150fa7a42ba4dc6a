package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"campusbook/pkg/logger"
	"campusbook/pkg/model"
)

type mockCompleter struct {
	mu    sync.Mutex
	calls []time.Time
	err   error
}

func (m *mockCompleter) CompleteExpired(ctx context.Context, now time.Time) ([]*model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, now)
	if m.err != nil {
		return nil, m.err
	}
	return []*model.Reservation{{ID: "r1", ResourceID: labScopeID}}, nil
}

func (m *mockCompleter) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func TestSweeper_TicksUntilCancelled(t *testing.T) {
	completer := &mockCompleter{}
	sweeper := NewSweeper(completer, 10*time.Millisecond, logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Start(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for completer.callCount() < 2 {
		select {
		case <-deadline:
			t.Fatal("sweeper did not tick")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}

func TestSweeper_DisabledReturnsImmediately(t *testing.T) {
	completer := &mockCompleter{}
	sweeper := NewSweeper(completer, 0, logger.Discard())

	done := make(chan struct{})
	go func() {
		sweeper.Start(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled sweeper should return")
	}
	if completer.callCount() != 0 {
		t.Errorf("disabled sweeper called CompleteExpired %d times", completer.callCount())
	}
}

func TestSweeper_TickErrorIsLogged(t *testing.T) {
	completer := &mockCompleter{err: errors.New("mongo down")}
	sweeper := NewSweeper(completer, time.Hour, logger.Discard())
	fixed := time.Date(2025, 3, 14, 18, 0, 0, 0, time.UTC)
	sweeper.now = func() time.Time { return fixed }

	sweeper.tick(context.Background())

	if completer.callCount() != 1 || !completer.calls[0].Equal(fixed) {
		t.Errorf("tick calls = %v", completer.calls)
	}
}
