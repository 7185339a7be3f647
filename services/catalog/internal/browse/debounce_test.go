package browse

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/wise004/Edupress-sub001/services/catalog/internal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recorder struct {
	mu        sync.Mutex
	fetched   []string
	delivered []Response
}

func (r *recorder) deliver(resp Response) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delivered = append(r.delivered, resp)
}

func (r *recorder) snapshot() ([]string, []Response) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.fetched...), append([]Response(nil), r.delivered...)
}

func (r *recorder) fetch(_ context.Context, term string) ([]domain.Course, error) {
	r.mu.Lock()
	r.fetched = append(r.fetched, term)
	r.mu.Unlock()
	return []domain.Course{{ID: term, Title: term}}, nil
}

func TestDebouncer_CollapsesBurst(t *testing.T) {
	rec := &recorder{}
	d := NewDebouncer(30*time.Millisecond, rec.fetch, rec.deliver)
	defer d.Close()

	for _, term := range []string{"r", "re", "rea", "reac", "react"} {
		d.Trigger(term)
	}

	require.Eventually(t, func() bool {
		_, delivered := rec.snapshot()
		return len(delivered) == 1
	}, time.Second, 5*time.Millisecond)

	// Give a stray timer the chance to fire.
	time.Sleep(60 * time.Millisecond)

	fetched, delivered := rec.snapshot()
	assert.Equal(t, []string{"react"}, fetched)
	require.Len(t, delivered, 1)
	assert.Equal(t, "react", delivered[0].Term)
	assert.Equal(t, uint64(5), delivered[0].Seq)
}

func TestDebouncer_CancelsSupersededFetch(t *testing.T) {
	started := make(chan string, 2)
	cancelled := make(chan string, 2)
	rec := &recorder{}

	fetch := func(ctx context.Context, term string) ([]domain.Course, error) {
		started <- term
		if term == "slow" {
			<-ctx.Done()
			cancelled <- term
			return []domain.Course{{ID: "stale"}}, ctx.Err()
		}
		return []domain.Course{{ID: term}}, nil
	}

	d := NewDebouncer(time.Millisecond, fetch, rec.deliver)
	defer d.Close()

	d.Trigger("slow")
	require.Equal(t, "slow", <-started)

	d.Trigger("fast")
	assert.Equal(t, "slow", <-cancelled)
	assert.Equal(t, "fast", <-started)

	require.Eventually(t, func() bool {
		_, delivered := rec.snapshot()
		return len(delivered) == 1
	}, time.Second, 5*time.Millisecond)

	_, delivered := rec.snapshot()
	assert.Equal(t, "fast", delivered[0].Term)
	assert.NoError(t, delivered[0].Err)
}

func TestDebouncer_StaleResponseDropped(t *testing.T) {
	release := make(chan struct{})
	rec := &recorder{}

	fetch := func(_ context.Context, term string) ([]domain.Course, error) {
		if term == "first" {
			<-release
		}
		return []domain.Course{{ID: term}}, nil
	}

	d := NewDebouncer(time.Millisecond, fetch, rec.deliver)
	defer d.Close()

	d.Trigger("first")
	time.Sleep(20 * time.Millisecond)
	d.Trigger("second")

	require.Eventually(t, func() bool {
		_, delivered := rec.snapshot()
		return len(delivered) == 1
	}, time.Second, 5*time.Millisecond)

	// The first fetch ignores cancellation and resolves last.
	close(release)
	time.Sleep(20 * time.Millisecond)

	_, delivered := rec.snapshot()
	require.Len(t, delivered, 1)
	assert.Equal(t, "second", delivered[0].Term)
}

func TestDebouncer_CancelDropsPending(t *testing.T) {
	rec := &recorder{}
	d := NewDebouncer(20*time.Millisecond, rec.fetch, rec.deliver)

	d.Trigger("react")
	d.Cancel()
	time.Sleep(50 * time.Millisecond)
	d.Close()

	fetched, delivered := rec.snapshot()
	assert.Empty(t, fetched)
	assert.Empty(t, delivered)
}

func TestDebouncer_TriggerAfterClose(t *testing.T) {
	rec := &recorder{}
	d := NewDebouncer(time.Millisecond, rec.fetch, rec.deliver)
	d.Close()

	assert.Equal(t, uint64(0), d.Trigger("react"))
	d.Close()
}
