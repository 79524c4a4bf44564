package store

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/xonecas/zoea-galaxy/internal/logging"
)

// Journal is a logging.Sink that writes events to the store in the
// background. Emit never blocks: when the queue is full the event is dropped.
type Journal struct {
	store *Store
	runID string

	queue   chan logging.Event
	done    chan struct{}
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
	written atomic.Int64
	dropped atomic.Int64
}

// NewJournal starts a journal writing into run runID.
func NewJournal(s *Store, runID string, bufferSize int) *Journal {
	if bufferSize < 1 {
		bufferSize = 1
	}
	j := &Journal{
		store: s,
		runID: runID,
		queue: make(chan logging.Event, bufferSize),
		done:  make(chan struct{}),
	}
	go j.run()
	return j
}

// Emit queues e for writing.
func (j *Journal) Emit(e logging.Event) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.closed {
		j.dropped.Add(1)
		return
	}
	select {
	case j.queue <- e:
	default:
		j.dropped.Add(1)
	}
}

// Close flushes queued events and stops the writer.
func (j *Journal) Close() {
	j.once.Do(func() {
		j.mu.Lock()
		j.closed = true
		close(j.queue)
		j.mu.Unlock()
		<-j.done
	})
}

// Written returns how many events were stored.
func (j *Journal) Written() int64 { return j.written.Load() }

// Dropped returns how many events were discarded.
func (j *Journal) Dropped() int64 { return j.dropped.Load() }

// RunID returns the run the journal writes into.
func (j *Journal) RunID() string { return j.runID }

func (j *Journal) run() {
	defer close(j.done)
	for e := range j.queue {
		if err := j.store.AppendEvent(j.runID, e); err != nil {
			j.dropped.Add(1)
			log.Warn().Err(err).Str("run", j.runID).Msg("Failed to journal event")
			continue
		}
		j.written.Add(1)
	}
}
