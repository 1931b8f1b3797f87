package service

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// longPollTimeout bounds how long a client hangs on a wait request
// before being released with the unchanged state.
const longPollTimeout = 25 * time.Second

// waiter is one long-polling client parked on a game.
type waiter struct {
	moveCount int
	notify    chan struct{}
	timer     *time.Timer
}

// WaitRegistry parks long-polling clients per game and wakes them when
// the game's move count changes, the game is deleted, their timeout
// fires, or the registry shuts down.
type WaitRegistry struct {
	mu       sync.RWMutex
	parked   map[string][]*waiter
	shutdown chan struct{}
	wg       sync.WaitGroup
}

func NewWaitRegistry() *WaitRegistry {
	return &WaitRegistry{
		parked:   make(map[string][]*waiter),
		shutdown: make(chan struct{}),
	}
}

// RegisterWait parks a client on gameID. The returned channel fires at
// most once; the caller re-reads the game state afterwards. ctx cancels
// the wait when the client disconnects.
func (w *WaitRegistry) RegisterWait(gameID string, moveCount int, ctx context.Context) <-chan struct{} {
	wt := &waiter{
		moveCount: moveCount,
		notify:    make(chan struct{}, 1),
	}
	wt.timer = time.AfterFunc(longPollTimeout, func() { wt.wake() })

	w.mu.Lock()
	w.parked[gameID] = append(w.parked[gameID], wt)
	w.mu.Unlock()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		select {
		case <-ctx.Done():
			w.unpark(gameID, wt)
		case <-wt.notify:
			w.unpark(gameID, wt)
		case <-w.shutdown:
			wt.timer.Stop()
			close(wt.notify)
		}
	}()

	return wt.notify
}

// wake signals the waiter without blocking; a second wake is a no-op
// because the channel already holds the token.
func (wt *waiter) wake() {
	select {
	case wt.notify <- struct{}{}:
	default:
	}
}

// NotifyGame wakes every client whose recorded move count no longer
// matches the game.
func (w *WaitRegistry) NotifyGame(gameID string, moveCount int) {
	w.mu.RLock()
	parked := w.parked[gameID]
	w.mu.RUnlock()

	for _, wt := range parked {
		if wt.moveCount != moveCount {
			wt.wake()
		}
	}
}

// RemoveGame wakes and forgets every client parked on a game. Called
// before the game itself is deleted so the clients observe the 404.
func (w *WaitRegistry) RemoveGame(gameID string) {
	w.mu.Lock()
	parked := w.parked[gameID]
	delete(w.parked, gameID)
	w.mu.Unlock()

	for _, wt := range parked {
		wt.wake()
	}
}

// Shutdown releases all parked clients and waits for their goroutines.
func (w *WaitRegistry) Shutdown(timeout time.Duration) error {
	close(w.shutdown)

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("wait registry did not drain in %v", timeout)
	}
}

func (w *WaitRegistry) unpark(gameID string, wt *waiter) {
	w.mu.Lock()
	defer w.mu.Unlock()

	parked := w.parked[gameID]
	for i, other := range parked {
		if other == wt {
			w.parked[gameID] = append(parked[:i], parked[i+1:]...)
			break
		}
	}
	if len(w.parked[gameID]) == 0 {
		delete(w.parked, gameID)
	}
	wt.timer.Stop()
}
