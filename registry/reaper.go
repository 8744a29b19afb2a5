package registry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/SchrodingerZhu/new-chat/metrics"
)

const (
	// DefaultReapInterval is the delay between eviction sweeps.
	DefaultReapInterval = 30 * time.Second

	// DefaultIdleWindow is the inactivity threshold after which a
	// record is eligible for eviction.
	DefaultIdleWindow = 15 * time.Minute
)

// Reaper periodically evicts idle records from a Store.
//
// The owner starts it once and calls Stop during orderly shutdown.
// Stopping is cooperative: the loop observes cancellation no later than
// its next tick, and Stop waits for the loop to exit.
type Reaper struct {
	store        *Store
	reapInterval time.Duration
	idleWindow   time.Duration
	log          *slog.Logger

	ctx        context.Context
	cancelFunc context.CancelFunc
	done       chan struct{}
	running    bool
	runMutex   sync.Mutex
}

// NewReaper creates a reaper for the given store. Non-positive
// durations fall back to the defaults.
func NewReaper(store *Store, reapInterval, idleWindow time.Duration, log *slog.Logger) *Reaper {
	if reapInterval <= 0 {
		reapInterval = DefaultReapInterval
	}
	if idleWindow <= 0 {
		idleWindow = DefaultIdleWindow
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Reaper{
		store:        store,
		reapInterval: reapInterval,
		idleWindow:   idleWindow,
		log:          log,
		ctx:          ctx,
		cancelFunc:   cancel,
		done:         make(chan struct{}),
	}
}

// Start launches the background eviction loop. Calling Start on a
// running reaper is a no-op.
func (r *Reaper) Start() {
	r.runMutex.Lock()
	defer r.runMutex.Unlock()

	if r.running {
		r.log.Info("Reaper already running")
		return
	}
	r.running = true

	r.log.Info("Starting reaper", "reapInterval", r.reapInterval, "idleWindow", r.idleWindow)
	go r.run()
}

func (r *Reaper) run() {
	defer close(r.done)

	ticker := time.NewTicker(r.reapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			evicted := r.store.EvictIdleSince(r.idleWindow)
			if evicted > 0 {
				metrics.AddEvictions(evicted)
				r.log.Info("Evicted idle users", "count", evicted)
			}
		}
	}
}

// Stop terminates the eviction loop and waits for it to exit. Stop is
// idempotent and safe to call on a reaper that was never started.
func (r *Reaper) Stop() {
	r.runMutex.Lock()
	defer r.runMutex.Unlock()

	r.cancelFunc()
	if !r.running {
		return
	}
	r.running = false

	<-r.done
	r.log.Info("Reaper stopped")
}
