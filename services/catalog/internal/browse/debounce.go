package browse

import (
	"context"
	"sync"
	"time"

	"github.com/wise004/Edupress-sub001/services/catalog/internal/domain"
)

// DefaultDebounce is the quiet period before a search fetch is issued.
const DefaultDebounce = 300 * time.Millisecond

// FetchFunc loads the courses matching term.
type FetchFunc func(ctx context.Context, term string) ([]domain.Course, error)

// Response is the outcome of one issued fetch.
type Response struct {
	Seq     uint64
	Term    string
	Courses []domain.Course
	Err     error
}

// Debouncer collapses bursts of Trigger calls into one fetch issued after
// the quiet period. Every Trigger takes a new sequence number; a newer
// Trigger cancels the context of any fetch still in flight, and responses
// whose sequence is no longer current are dropped. The last issued request
// wins, whatever order the responses arrive in.
type Debouncer struct {
	delay   time.Duration
	fetch   FetchFunc
	deliver func(Response)

	mu       sync.Mutex
	seq      uint64
	timer    *time.Timer
	inflight context.CancelFunc
	closed   bool
	wg       sync.WaitGroup
}

// NewDebouncer creates a debouncer. deliver is called from the fetch
// goroutine, only for current responses.
func NewDebouncer(delay time.Duration, fetch FetchFunc, deliver func(Response)) *Debouncer {
	if delay < 0 {
		delay = 0
	}
	return &Debouncer{delay: delay, fetch: fetch, deliver: deliver}
}

// Trigger schedules a fetch for term and supersedes everything before it.
// It returns the sequence number assigned to the request, or 0 after Close.
func (d *Debouncer) Trigger(term string) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return 0
	}
	d.supersedeLocked()

	seq := d.seq
	d.wg.Add(1)
	d.timer = time.AfterFunc(d.delay, func() {
		defer d.wg.Done()
		d.run(seq, term)
	})
	return seq
}

// Cancel drops the pending and in-flight requests without scheduling a new
// one.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.closed {
		d.supersedeLocked()
	}
}

// Current returns the latest sequence number.
func (d *Debouncer) Current() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.seq
}

// Close cancels outstanding work and waits for fetch goroutines to exit.
func (d *Debouncer) Close() {
	d.mu.Lock()
	if !d.closed {
		d.supersedeLocked()
		d.closed = true
	}
	d.mu.Unlock()
	d.wg.Wait()
}

// supersedeLocked bumps the sequence, stops a pending timer and cancels
// the in-flight fetch. d.mu must be held.
func (d *Debouncer) supersedeLocked() {
	d.seq++
	if d.timer != nil {
		if d.timer.Stop() {
			d.wg.Done()
		}
		d.timer = nil
	}
	if d.inflight != nil {
		d.inflight()
		d.inflight = nil
	}
}

func (d *Debouncer) run(seq uint64, term string) {
	d.mu.Lock()
	if seq != d.seq {
		d.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	d.inflight = cancel
	d.timer = nil
	d.mu.Unlock()
	defer cancel()

	courses, err := d.fetch(ctx, term)

	d.mu.Lock()
	current := seq == d.seq
	if current {
		d.inflight = nil
	}
	d.mu.Unlock()

	if current && d.deliver != nil {
		d.deliver(Response{Seq: seq, Term: term, Courses: courses, Err: err})
	}
}
