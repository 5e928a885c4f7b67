package tui

import (
	"sync"

	"github.com/PizzaHomicide/hlsplay/internal/player"
	"github.com/PizzaHomicide/hlsplay/internal/ui/tui/models"
	tea "github.com/charmbracelet/bubbletea"
)

// eventQueue is the controller's Poster.  Engines and surfaces post from their own goroutines, and the controller
// posts from inside Update, where sending straight to the program would deadlock.  Events are buffered without
// bound and handed to the program in order by a single pump.
type eventQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []models.EngineEventMsg
	closed bool
}

var _ player.Poster = (*eventQueue)(nil)

func newEventQueue() *eventQueue {
	q := &eventQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Post implements player.Poster.  Events posted after Close are dropped.
func (q *eventQueue) Post(generation uint64, ev player.Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.items = append(q.items, models.EngineEventMsg{Generation: generation, Event: ev})
	q.cond.Signal()
}

// pump delivers queued events to send until the queue is closed
func (q *eventQueue) pump(send func(tea.Msg)) {
	for {
		q.mu.Lock()
		for len(q.items) == 0 && !q.closed {
			q.cond.Wait()
		}
		if q.closed {
			q.mu.Unlock()
			return
		}
		msg := q.items[0]
		q.items[0] = models.EngineEventMsg{}
		q.items = q.items[1:]
		q.mu.Unlock()

		send(msg)
	}
}

// Close stops the pump and discards anything still queued
func (q *eventQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.items = nil
	q.cond.Broadcast()
	q.mu.Unlock()
}
