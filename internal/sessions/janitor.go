package sessions

import (
	"time"

	"github.com/seuros/funnelscope/internal/logging"
)

// Janitor periodically evicts idle sessions from a Store.
type Janitor struct {
	store    *Store
	interval time.Duration
	stopChan chan struct{}
	done     chan struct{}
}

// NewJanitor creates a janitor sweeping store every interval.
func NewJanitor(store *Store, interval time.Duration) *Janitor {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Janitor{
		store:    store,
		interval: interval,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins sweeping in the background.
func (j *Janitor) Start() {
	logging.L().Info("starting session janitor", "interval", j.interval)
	go j.run()
}

// Stop halts the janitor and waits for the running sweep to finish.
func (j *Janitor) Stop() {
	close(j.stopChan)
	<-j.done
}

func (j *Janitor) run() {
	defer close(j.done)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.sweep()
		case <-j.stopChan:
			return
		}
	}
}

func (j *Janitor) sweep() {
	if removed := j.store.Sweep(); removed > 0 {
		logging.L().Info("evicted idle sessions", "count", removed, "active", j.store.Len())
	}
}
