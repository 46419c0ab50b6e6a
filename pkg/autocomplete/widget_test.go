package autocomplete

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wondrvoices/wondrsuggest/pkg/suggest"
)

// manualScheduler fires timers only when the test advances its clock.
type manualScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*manualTimer
}

type manualTimer struct {
	s       *manualScheduler
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTimer{s: s, at: s.now + d, f: f}
	s.timers = append(s.timers, t)
	return t
}

func (s *manualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	s.now += d
	var due []*manualTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired && t.at <= s.now {
			t.fired = true
			due = append(due, t)
		}
	}
	s.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].at < due[j].at })
	for _, t := range due {
		t.f()
	}
}

func (s *manualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

func testProvider() *suggest.Provider {
	return suggest.NewStaticProvider(suggest.NewIndex(suggest.Lists{
		Location: []string{
			"Gulfport Art Walk, Florida",
			"Tampa, Florida",
			"Stewart Hall (Art Dept.)",
		},
	}))
}

type recorder struct {
	mu     sync.Mutex
	states []State
}

func (r *recorder) record(st State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, st)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.states)
}

func newTestWidget(loader suggest.Loader, sched *manualScheduler, rec *recorder) *Widget {
	opts := Options{Category: suggest.Location, Status: "approved", Limit: 10, Scheduler: sched}
	if rec != nil {
		opts.OnChange = rec.record
	}
	return New(loader, opts)
}

func TestWidgetDebounceResolvesLatestOnly(t *testing.T) {
	sched := &manualScheduler{}
	w := newTestWidget(testProvider(), sched, nil)
	defer w.Close()

	w.Input("a")
	sched.Advance(100 * time.Millisecond)
	w.Input("ar")
	sched.Advance(100 * time.Millisecond)
	w.Input("art")
	sched.Advance(249 * time.Millisecond)
	assert.Equal(t, 0, w.Lookups())
	assert.Equal(t, 1, sched.Pending())

	sched.Advance(time.Millisecond)
	assert.Equal(t, 1, w.Lookups())

	st := w.State()
	assert.Equal(t, "art", st.Value)
	assert.True(t, st.Open)
	assert.Equal(t, []string{"Gulfport Art Walk, Florida", "Stewart Hall (Art Dept.)"}, st.Suggestions)
}

func TestWidgetServesRepeatedQueriesFromCache(t *testing.T) {
	sched := &manualScheduler{}
	w := newTestWidget(testProvider(), sched, nil)
	defer w.Close()

	w.Input("art")
	sched.Advance(DefaultDebounce)
	w.Input("tampa")
	sched.Advance(DefaultDebounce)
	w.Input(" ART ")
	sched.Advance(DefaultDebounce)

	assert.Equal(t, 2, w.Lookups())
	assert.Equal(t, map[string]int{"entries": 2, "hits": 1, "misses": 2}, w.CacheStats())
	assert.Equal(t, []string{"Gulfport Art Walk, Florida", "Stewart Hall (Art Dept.)"}, w.State().Suggestions)
}

func TestWidgetEmptyInputBypassesCache(t *testing.T) {
	sched := &manualScheduler{}
	rec := &recorder{}
	w := newTestWidget(testProvider(), sched, rec)
	defer w.Close()

	w.Input("art")
	sched.Advance(DefaultDebounce)
	require.True(t, w.State().Open)

	w.Input("   ")
	st := w.State()
	assert.False(t, st.Open)
	assert.Empty(t, st.Suggestions)
	assert.Equal(t, 0, sched.Pending())
	assert.Equal(t, 1, w.CacheStats()["entries"])
	assert.Equal(t, 2, rec.count())
}

func TestWidgetCloseMidDebounce(t *testing.T) {
	sched := &manualScheduler{}
	rec := &recorder{}
	w := newTestWidget(testProvider(), sched, rec)

	w.Input("art")
	sched.Advance(100 * time.Millisecond)
	w.Close()
	sched.Advance(time.Second)

	assert.Equal(t, 0, w.Lookups())
	assert.Equal(t, 0, sched.Pending())
	assert.Equal(t, 0, rec.count())

	// Closed widgets ignore further events.
	w.Input("tampa")
	w.Blur()
	sched.Advance(time.Second)
	assert.Equal(t, 0, w.Lookups())
	w.Close()
}

func TestWidgetsKeepIndependentCaches(t *testing.T) {
	sched := &manualScheduler{}
	provider := testProvider()
	a := newTestWidget(provider, sched, nil)
	b := newTestWidget(provider, sched, nil)
	defer a.Close()
	defer b.Close()

	a.Input("art")
	sched.Advance(DefaultDebounce)
	assert.Equal(t, 1, a.CacheStats()["entries"])
	assert.Equal(t, 0, b.CacheStats()["entries"])

	b.Input("art")
	sched.Advance(DefaultDebounce)
	assert.Equal(t, 1, b.Lookups(), "b must not read a's cache")
	assert.Equal(t, 0, b.CacheStats()["hits"])

	a.Input("tampa")
	b.Input("florida")
	sched.Advance(DefaultDebounce)
	assert.Equal(t, []string{"Tampa, Florida"}, a.State().Suggestions)
	assert.Equal(t, []string{"Gulfport Art Walk, Florida", "Tampa, Florida"}, b.State().Suggestions)
}

func TestWidgetSelectRunsBeforeBlurClose(t *testing.T) {
	sched := &manualScheduler{}
	rec := &recorder{}
	w := newTestWidget(testProvider(), sched, rec)
	defer w.Close()

	w.Focus()
	w.Input("art")
	sched.Advance(DefaultDebounce)
	require.True(t, w.State().Open)

	// Pointer down on a suggestion blurs the input first.
	w.Blur()
	sched.Advance(50 * time.Millisecond)
	assert.True(t, w.State().Open, "list stays open during the grace delay")

	w.Select("Gulfport Art Walk, Florida")
	events := rec.count()
	sched.Advance(time.Second)

	st := w.State()
	assert.Equal(t, "Gulfport Art Walk, Florida", st.Value)
	assert.False(t, st.Open)
	assert.True(t, st.Focused)
	assert.Equal(t, events, rec.count(), "the stale blur close must not fire after select")
	assert.Equal(t, 1, w.Lookups())
}

func TestWidgetBlurClosesAfterGrace(t *testing.T) {
	sched := &manualScheduler{}
	w := newTestWidget(testProvider(), sched, nil)
	defer w.Close()

	w.Focus()
	w.Input("florida")
	sched.Advance(DefaultDebounce)
	require.True(t, w.State().Open)

	w.Blur()
	sched.Advance(DefaultBlurGrace - time.Millisecond)
	assert.True(t, w.State().Open)
	sched.Advance(time.Millisecond)
	assert.False(t, w.State().Open)
	assert.False(t, w.State().Focused)
}

func TestWidgetFocusCancelsBlurClose(t *testing.T) {
	sched := &manualScheduler{}
	w := newTestWidget(testProvider(), sched, nil)
	defer w.Close()

	w.Input("florida")
	sched.Advance(DefaultDebounce)
	w.Blur()
	w.Focus()
	sched.Advance(time.Second)
	assert.True(t, w.State().Open)
}

func TestWidgetLoadFailureShowsNothing(t *testing.T) {
	sched := &manualScheduler{}
	failing := suggest.NewProvider(suggest.SourceFunc(func(ctx context.Context) ([]byte, error) {
		return nil, errors.New("network down")
	}))
	w := newTestWidget(failing, sched, nil)
	defer w.Close()

	w.Input("art")
	sched.Advance(DefaultDebounce)

	st := w.State()
	assert.False(t, st.Open)
	assert.Empty(t, st.Suggestions)
	assert.Equal(t, 0, w.Lookups())
	assert.Equal(t, 0, w.CacheStats()["entries"])
}

func TestWidgetRealTimer(t *testing.T) {
	got := make(chan State, 4)
	w := New(testProvider(), Options{
		Category: suggest.Location,
		Debounce: 5 * time.Millisecond,
		OnChange: func(st State) { got <- st },
	})
	defer w.Close()

	w.Input("tampa")
	select {
	case st := <-got:
		assert.Equal(t, []string{"Tampa, Florida"}, st.Suggestions)
	case <-time.After(2 * time.Second):
		t.Fatal("debounced lookup never fired")
	}
}

func TestWidgetClearedInputRendersLast(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	rec := &recorder{}

	w := New(testProvider(), Options{
		Category: suggest.Location,
		Debounce: time.Millisecond,
		OnChange: func(st State) {
			if st.Open {
				once.Do(func() { close(entered) })
				<-release
			}
			rec.record(st)
		},
	})
	defer w.Close()

	w.Input("art")
	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("debounced lookup never fired")
	}

	cleared := make(chan struct{})
	go func() {
		w.Input("")
		close(cleared)
	}()
	require.Eventually(t, func() bool { return w.State().Value == "" }, time.Second, time.Millisecond)
	close(release)
	<-cleared

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.NotEmpty(t, rec.states)
	last := rec.states[len(rec.states)-1]
	assert.False(t, last.Open)
	assert.Empty(t, last.Suggestions)
	assert.False(t, w.State().Open)
}

func TestWidgetCloseLeavesSharedLoadToOthers(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var startOnce sync.Once
	shared := suggest.NewProvider(suggest.SourceFunc(func(ctx context.Context) ([]byte, error) {
		startOnce.Do(func() { close(started) })
		<-release
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return []byte(`{"location": ["Gulfport Art Walk, Florida", "Tampa, Florida"]}`), nil
	}))

	sched := &manualScheduler{}
	a := newTestWidget(shared, sched, nil)
	got := make(chan State, 1)
	b := New(shared, Options{
		Category:  suggest.Location,
		Scheduler: sched,
		OnChange:  func(st State) { got <- st },
	})
	defer b.Close()

	a.Input("art")
	b.Input("tampa")
	done := make(chan struct{})
	go func() {
		sched.Advance(DefaultDebounce)
		close(done)
	}()
	<-started

	a.Close()
	close(release)
	<-done

	select {
	case st := <-got:
		assert.True(t, st.Open)
		assert.Equal(t, []string{"Tampa, Florida"}, st.Suggestions)
	case <-time.After(2 * time.Second):
		t.Fatal("widget b never rendered")
	}
	assert.Equal(t, 1, shared.Fetches())
}
