package metric

import "time"

type FailReason string

const (
	FailReasonNoMatchedRoute   FailReason = "no_matched_route"
	FailReasonActionNotFound   FailReason = "action_not_found"
	FailReasonActionError      FailReason = "action_error"
	FailReasonRateLimited      FailReason = "rate_limited"
	FailReasonMethodNotAllowed FailReason = "method_not_allowed"
)

// Metrics is implemented by every metrics provider.
type Metrics interface {
	IncRequestsTotal()
	IncRequestsInFlight()
	DecRequestsInFlight()
	UpdateRequestsDuration(route, method string, start time.Time)
	IncResponsesTotal(route string, status int)
	IncFailedRequestsTotal(reason FailReason)
	IncActionsTotal(controller, action string)
}

type nop struct{}

func NewNop() Metrics {
	return nop{}
}

func (nop) IncRequestsTotal()                               {}
func (nop) IncRequestsInFlight()                            {}
func (nop) DecRequestsInFlight()                            {}
func (nop) UpdateRequestsDuration(_, _ string, _ time.Time) {}
func (nop) IncResponsesTotal(_ string, _ int)               {}
func (nop) IncFailedRequestsTotal(_ FailReason)             {}
func (nop) IncActionsTotal(_, _ string)                     {}
