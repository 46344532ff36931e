package progress

import "time"

// State is a snapshot of a search's probe tally. Success counts matches, Fail counts every
// other outcome.
type State struct {
	SuccessCount int `json:"success_count"`
	FailCount    int `json:"fail_count"`
	Total        int `json:"total"`
}

// Completed returns how many probes have settled
func (s State) Completed() int {
	return s.SuccessCount + s.FailCount
}

// Done reports whether every admitted probe has settled
func (s State) Done() bool {
	return s.Completed() >= s.Total
}

// Fraction is the completed share in [0, 1]. An empty search counts as finished.
func (s State) Fraction() float64 {
	if s.Total <= 0 {
		return 1
	}
	f := float64(s.Completed()) / float64(s.Total)
	if f > 1 {
		return 1
	}
	return f
}

// Percentage is Fraction scaled to 0-100
func (s State) Percentage() float64 {
	return s.Fraction() * 100
}

// EstimateETA extrapolates the remaining time from the rate observed since start
func (s State) EstimateETA(start time.Time) time.Duration {
	done := s.Completed()
	if s.Total <= 0 || done <= 0 || done >= s.Total {
		return 0
	}

	elapsed := time.Since(start)
	if elapsed <= 0 {
		return 0
	}

	rate := float64(done) / elapsed.Seconds()
	if rate <= 0 {
		return 0
	}

	remaining := float64(s.Total - done)
	return time.Duration(remaining / rate * float64(time.Second))
}

// Listener receives tracker updates. OnComplete is called exactly once.
type Listener interface {
	OnProgress(State)
	OnComplete(State)
}

// ListenerFuncs adapts plain functions to Listener; nil fields are skipped
type ListenerFuncs struct {
	Progress func(State)
	Complete func(State)
}

func (l ListenerFuncs) OnProgress(s State) {
	if l.Progress != nil {
		l.Progress(s)
	}
}

func (l ListenerFuncs) OnComplete(s State) {
	if l.Complete != nil {
		l.Complete(s)
	}
}

// Listeners fans updates out to several listeners in order
type Listeners []Listener

func (ls Listeners) OnProgress(s State) {
	for _, l := range ls {
		if l != nil {
			l.OnProgress(s)
		}
	}
}

func (ls Listeners) OnComplete(s State) {
	for _, l := range ls {
		if l != nil {
			l.OnComplete(s)
		}
	}
}
