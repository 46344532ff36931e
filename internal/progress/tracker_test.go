package progress

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingListener struct {
	mu        sync.Mutex
	updates   []State
	completes []State
}

func (r *recordingListener) OnProgress(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, s)
}

func (r *recordingListener) OnComplete(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completes = append(r.completes, s)
}

func TestStateViews(t *testing.T) {
	s := State{SuccessCount: 1, FailCount: 2, Total: 4}
	assert.Equal(t, 3, s.Completed())
	assert.False(t, s.Done())
	assert.InDelta(t, 0.75, s.Fraction(), 1e-9)
	assert.InDelta(t, 75.0, s.Percentage(), 1e-9)

	assert.True(t, State{}.Done())
	assert.Equal(t, 1.0, State{}.Fraction())
}

func TestEstimateETA(t *testing.T) {
	s := State{SuccessCount: 5, FailCount: 5, Total: 20}
	eta := s.EstimateETA(time.Now().Add(-10 * time.Second))
	assert.InDelta(t, 10*time.Second, eta, float64(time.Second))

	assert.Zero(t, State{Total: 10}.EstimateETA(time.Now().Add(-time.Second)))
	assert.Zero(t, State{SuccessCount: 10, Total: 10}.EstimateETA(time.Now().Add(-time.Second)))
}

func TestTrackerConvergesAndCompletesOnce(t *testing.T) {
	listener := &recordingListener{}
	tracker := NewTracker(3, listener, zerolog.Nop())
	tracker.Start()

	tracker.AddSuccess()
	tracker.AddFail()
	select {
	case <-tracker.Done():
		t.Fatal("completed early")
	default:
	}
	tracker.AddSuccess()

	<-tracker.Done()
	assert.Equal(t, State{SuccessCount: 2, FailCount: 1, Total: 3}, tracker.State())

	// late updates are ignored
	tracker.AddFail()
	tracker.AddSuccess()
	assert.Equal(t, State{SuccessCount: 2, FailCount: 1, Total: 3}, tracker.State())

	listener.mu.Lock()
	defer listener.mu.Unlock()
	require.Len(t, listener.completes, 1)
	assert.Equal(t, State{SuccessCount: 2, FailCount: 1, Total: 3}, listener.completes[0])
	require.Len(t, listener.updates, 4)
	assert.Equal(t, State{Total: 3}, listener.updates[0])
	for i := 1; i < len(listener.updates); i++ {
		assert.Equal(t, i, listener.updates[i].Completed())
	}
}

func TestTrackerEmptyCompletesOnStart(t *testing.T) {
	var completes atomic.Int32
	tracker := NewTracker(0, ListenerFuncs{Complete: func(State) { completes.Add(1) }}, zerolog.Nop())
	tracker.Start()
	tracker.Start()

	select {
	case <-tracker.Done():
	default:
		t.Fatal("empty tracker should complete on start")
	}
	assert.Equal(t, int32(1), completes.Load())
}

func TestTrackerConcurrentUpdates(t *testing.T) {
	const total = 200
	var completes atomic.Int32
	var lastSeen atomic.Int32
	tracker := NewTracker(total, ListenerFuncs{
		Progress: func(s State) {
			// updates arrive in order
			assert.Equal(t, lastSeen.Load()+1, int32(s.Completed()))
			lastSeen.Store(int32(s.Completed()))
		},
		Complete: func(State) { completes.Add(1) },
	}, zerolog.Nop())

	var wg sync.WaitGroup
	for i := 0; i < total+20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%3 == 0 {
				tracker.AddSuccess()
			} else {
				tracker.AddFail()
			}
		}(i)
	}
	wg.Wait()

	<-tracker.Done()
	assert.Equal(t, total, tracker.State().Completed())
	assert.Equal(t, int32(1), completes.Load())
}

func TestTrackerNilListener(t *testing.T) {
	tracker := NewTracker(1, nil, zerolog.Nop())
	tracker.Start()
	tracker.AddFail()
	<-tracker.Done()
	assert.Equal(t, 1, tracker.State().FailCount)
}

func TestListenersFanOut(t *testing.T) {
	a, b := &recordingListener{}, &recordingListener{}
	ls := Listeners{a, nil, b}
	ls.OnProgress(State{Total: 1})
	ls.OnComplete(State{SuccessCount: 1, Total: 1})
	assert.Len(t, a.updates, 1)
	assert.Len(t, b.completes, 1)
}
