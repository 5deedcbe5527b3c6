package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Status is the connectivity snapshot the display layer polls for.
type Status struct {
	Reachable      bool     `json:"reachable"`
	Model          string   `json:"model"`
	ModelAvailable bool     `json:"modelAvailable"`
	Models         []string `json:"models,omitempty"`
}

// StatusFunc fetches the current status. Implementations report an
// unreachable upstream via the returned error.
type StatusFunc func(ctx context.Context) (Status, error)

// StatusPoller fetches Status on a fixed interval. Ticks are fire-and-forget
// and may overlap when the upstream is slow; responses carry a sequence
// number so a stale response arriving after a newer one never overwrites
// fresher state.
type StatusPoller struct {
	fetch    StatusFunc
	interval time.Duration

	mu      sync.Mutex
	seq     uint64
	applied uint64
	latest  Status
	known   bool
}

const defaultPollInterval = 10 * time.Second

func NewStatusPoller(fetch StatusFunc, interval time.Duration) *StatusPoller {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &StatusPoller{fetch: fetch, interval: interval}
}

// Run polls until ctx is cancelled. Each tick launches its own fetch; a
// slow response is simply followed by the next scheduled tick.
func (p *StatusPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.pollOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.pollOnce(ctx)
		}
	}
}

func (p *StatusPoller) pollOnce(ctx context.Context) {
	p.mu.Lock()
	p.seq++
	n := p.seq
	p.mu.Unlock()

	go func() {
		st, err := p.fetch(ctx)
		if err != nil {
			slog.Debug("status poll failed", "error", err)
			st = Status{Reachable: false}
		}
		p.apply(n, st)
	}()
}

func (p *StatusPoller) apply(seq uint64, st Status) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if seq <= p.applied {
		return
	}
	p.applied = seq
	p.latest = st
	p.known = true
}

// Latest returns the freshest status seen so far. The bool is false until
// the first poll completes.
func (p *StatusPoller) Latest() (Status, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latest, p.known
}
