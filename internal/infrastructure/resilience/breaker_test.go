package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errUnavailable = errors.New("service unavailable")
	errRefused     = errors.New("request refused")
)

type fakeNow struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeNow() *fakeNow {
	return &fakeNow{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fakeNow) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeNow) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = f.t.Add(d)
}

func call(b *Breaker, err error) error {
	return b.Do(context.Background(), func(context.Context) error { return err })
}

func tripAfter(n uint32) func(Counts) bool {
	return func(c Counts) bool { return c.ConsecutiveFailures >= n }
}

func TestBreakerStateTransitions(t *testing.T) {
	tests := []struct {
		name          string
		outcomes      []error
		expectedState State
	}{
		{"stays closed on successes", []error{nil, nil, nil}, StateClosed},
		{"opens after consecutive failures", []error{errUnavailable, errUnavailable, errUnavailable}, StateOpen},
		{"success resets the streak", []error{errUnavailable, errUnavailable, nil, errUnavailable}, StateClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			breaker := New("test", Settings{ReadyToTrip: tripAfter(3)})
			for _, outcome := range tt.outcomes {
				_ = call(breaker, outcome)
			}
			assert.Equal(t, tt.expectedState, breaker.State())
		})
	}
}

func TestBreakerCounts(t *testing.T) {
	breaker := New("test", Settings{ReadyToTrip: tripAfter(10)})

	_ = call(breaker, nil)
	_ = call(breaker, errUnavailable)
	_ = call(breaker, errUnavailable)

	counts := breaker.Counts()
	assert.Equal(t, uint32(3), counts.Requests)
	assert.Equal(t, uint32(1), counts.TotalSuccesses)
	assert.Equal(t, uint32(2), counts.TotalFailures)
	assert.Equal(t, uint32(2), counts.ConsecutiveFailures)
	assert.Equal(t, uint32(0), counts.ConsecutiveSuccesses)
}

func TestBreakerOpenFailsFast(t *testing.T) {
	breaker := New("test", Settings{ReadyToTrip: tripAfter(1), Timeout: time.Minute})
	require.ErrorIs(t, call(breaker, errUnavailable), errUnavailable)

	called := false
	err := breaker.Do(context.Background(), func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestBreakerHalfOpenRecovery(t *testing.T) {
	clock := newFakeNow()
	breaker := New("test", Settings{
		MaxRequests: 2,
		Timeout:     10 * time.Second,
		ReadyToTrip: tripAfter(1),
		Now:         clock.Now,
	})

	_ = call(breaker, errUnavailable)
	require.Equal(t, StateOpen, breaker.State())

	clock.Advance(10 * time.Second)
	assert.Equal(t, StateHalfOpen, breaker.State())

	require.NoError(t, call(breaker, nil))
	assert.Equal(t, StateHalfOpen, breaker.State())
	require.NoError(t, call(breaker, nil))
	assert.Equal(t, StateClosed, breaker.State())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	clock := newFakeNow()
	breaker := New("test", Settings{Timeout: time.Second, ReadyToTrip: tripAfter(1), Now: clock.Now})

	_ = call(breaker, errUnavailable)
	clock.Advance(time.Second)
	require.Equal(t, StateHalfOpen, breaker.State())

	_ = call(breaker, errUnavailable)
	assert.Equal(t, StateOpen, breaker.State())
}

func TestBreakerHalfOpenLimitsTrialCalls(t *testing.T) {
	clock := newFakeNow()
	breaker := New("test", Settings{MaxRequests: 1, Timeout: time.Second, ReadyToTrip: tripAfter(1), Now: clock.Now})

	_ = call(breaker, errUnavailable)
	clock.Advance(time.Second)

	release := make(chan struct{})
	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- breaker.Do(context.Background(), func(context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	assert.ErrorIs(t, call(breaker, nil), ErrTooManyRequests)
	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, StateClosed, breaker.State())
}

func TestBreakerIsSuccessfulClassifier(t *testing.T) {
	breaker := New("test", Settings{
		ReadyToTrip:  tripAfter(2),
		IsSuccessful: func(err error) bool { return err == nil || errors.Is(err, errRefused) },
	})

	for i := 0; i < 5; i++ {
		assert.ErrorIs(t, call(breaker, errRefused), errRefused)
	}
	assert.Equal(t, StateClosed, breaker.State())
	assert.Equal(t, uint32(5), breaker.Counts().TotalSuccesses)
}

func TestBreakerIgnoresCallerCancellation(t *testing.T) {
	breaker := New("test", Settings{ReadyToTrip: tripAfter(1)})

	ctx, cancel := context.WithCancel(context.Background())
	err := breaker.Do(ctx, func(ctx context.Context) error {
		cancel()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateClosed, breaker.State())
	assert.Equal(t, Counts{}, breaker.Counts())

	assert.ErrorIs(t, breaker.Do(ctx, func(context.Context) error { return nil }), context.Canceled)
}

func TestBreakerIntervalClearsCounts(t *testing.T) {
	clock := newFakeNow()
	breaker := New("test", Settings{Interval: time.Minute, ReadyToTrip: tripAfter(3), Now: clock.Now})

	_ = call(breaker, errUnavailable)
	_ = call(breaker, errUnavailable)
	clock.Advance(time.Minute)
	_ = call(breaker, errUnavailable)

	assert.Equal(t, StateClosed, breaker.State())
	assert.Equal(t, uint32(1), breaker.Counts().ConsecutiveFailures)
}

func TestBreakerCallbacks(t *testing.T) {
	clock := newFakeNow()
	var transitions []string
	breaker := New("commands", Settings{
		Timeout:     time.Second,
		ReadyToTrip: tripAfter(1),
		Now:         clock.Now,
		OnStateChange: func(name string, from, to State) {
			transitions = append(transitions, name+":"+from.String()+"->"+to.String())
		},
	})

	_ = call(breaker, errUnavailable)
	clock.Advance(time.Second)
	_ = call(breaker, nil)

	assert.Equal(t, []string{
		"commands:closed->open",
		"commands:open->half-open",
		"commands:half-open->closed",
	}, transitions)
}

func TestBreakerRecoversPanics(t *testing.T) {
	breaker := New("test", Settings{ReadyToTrip: tripAfter(1)})

	assert.Panics(t, func() {
		_ = breaker.Do(context.Background(), func(context.Context) error { panic("boom") })
	})
	assert.Equal(t, StateOpen, breaker.State())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "unknown", State(9).String())
}
