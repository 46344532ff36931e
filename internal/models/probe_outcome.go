package models

import "time"

// OutcomeStatus classifies how a single probe ended
type OutcomeStatus int

const (
	OutcomeMatched OutcomeStatus = iota
	// OutcomeNotMatched means the validation rule recognised a "not registered" response
	OutcomeNotMatched
	// OutcomeHTTPStatus means a status_code rule saw a non-200 status outside the error set
	OutcomeHTTPStatus
	// OutcomeRejected means the identifier failed the rule's regex and no request was sent
	OutcomeRejected
	OutcomeNetworkError
	OutcomeTimedOut
	OutcomeCancelled
)

// String returns a stable, log-friendly name
func (s OutcomeStatus) String() string {
	switch s {
	case OutcomeMatched:
		return "matched"
	case OutcomeNotMatched:
		return "not_matched"
	case OutcomeHTTPStatus:
		return "http_status"
	case OutcomeRejected:
		return "rejected"
	case OutcomeNetworkError:
		return "network_error"
	case OutcomeTimedOut:
		return "timed_out"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// ProbeOutcome is the result of one probe run
type ProbeOutcome struct {
	Rule       *ProbeRule
	Status     OutcomeStatus
	StatusCode int
	FinalURL   string
	Err        error
	Duration   time.Duration
}

// Matched is the boolean view: only OutcomeMatched counts as found
func (o ProbeOutcome) Matched() bool {
	return o.Status == OutcomeMatched
}

// Failed reports whether the probe never produced a usable response
func (o ProbeOutcome) Failed() bool {
	switch o.Status {
	case OutcomeNetworkError, OutcomeTimedOut, OutcomeCancelled:
		return true
	default:
		return false
	}
}
