package statestorage

import (
	"strings"
	"sync"

	"github.com/demonshower/BFTBrain/internal/domain"
)

// watcherSet fans events out to prefix subscribers without blocking the
// writer; a full subscriber channel drops the event.
type watcherSet struct {
	mu   sync.Mutex
	subs map[chan domain.StateEvent]string
}

func newWatcherSet() *watcherSet {
	return &watcherSet{subs: make(map[chan domain.StateEvent]string)}
}

func (w *watcherSet) add(prefix string) chan domain.StateEvent {
	ch := make(chan domain.StateEvent, domain.DefaultWatchChannelBufferSize)
	w.mu.Lock()
	w.subs[ch] = prefix
	w.mu.Unlock()
	return ch
}

// notify returns the number of subscribers that missed the event.
func (w *watcherSet) notify(event domain.StateEvent) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	dropped := 0
	for ch, prefix := range w.subs {
		if !strings.HasPrefix(event.Key, prefix) {
			continue
		}
		select {
		case ch <- event:
		default:
			dropped++
		}
	}
	return dropped
}

func (w *watcherSet) remove(ch chan domain.StateEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.subs[ch]; ok {
		delete(w.subs, ch)
		close(ch)
	}
}

func (w *watcherSet) closeAll() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for ch := range w.subs {
		delete(w.subs, ch)
		close(ch)
	}
}
