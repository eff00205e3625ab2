package dispatch

import "fmt"

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
	StatusPartial Status = "partial"
)

const (
	TypePush  = "push"
	TypeGroup = "group"
)

const (
	MessageSuccess          = "push succeeded"
	MessageFailed           = "push failed"
	MessageTimeout          = "push timed out"
	MessageRenderFailed     = "failed to parse push template"
	MessageEndpointNotFound = "endpoint not found"
	MessageEndpointDisabled = "endpoint is disabled"
	MessageGroupNotFound    = "endpoint group not found"
	MessageGroupDisabled    = "endpoint group is disabled"
	MessageGroupEmpty       = "endpoint group has no endpoints"
	MessageAccepted         = "request accepted, processing"
)

// Outcome is the result of dispatching to one endpoint. It is decided once.
type Outcome struct {
	EndpointId string `json:"endpointId"`
	Endpoint   string `json:"endpoint"`
	Status     Status `json:"status"`
	Message    string `json:"message"`

	TimedOut bool `json:"-"`
}

type PushResult struct {
	Status  Status `json:"status"`
	Message string `json:"message"`
	Type    string `json:"type"`
	TraceId string `json:"traceId"`
}

type GroupData struct {
	Total        int       `json:"total"`
	SuccessCount int       `json:"successCount"`
	FailedCount  int       `json:"failedCount"`
	SkippedCount int       `json:"skippedCount"`
	Details      []Outcome `json:"details"`
}

type GroupResult struct {
	Status  Status    `json:"status"`
	Message string    `json:"message"`
	Type    string    `json:"type"`
	TraceId string    `json:"traceId"`
	Data    GroupData `json:"data"`
}

func NewPushResult(status Status, message, traceId string) PushResult {
	return PushResult{
		Status:  status,
		Message: message,
		Type:    TypePush,
		TraceId: traceId,
	}
}

// PushResultFromOutcome maps a single-endpoint outcome onto the response body.
func PushResultFromOutcome(o Outcome, traceId string) PushResult {
	if o.Status == StatusSuccess {
		return NewPushResult(StatusSuccess, MessageSuccess, traceId)
	}

	msg := o.Message
	if msg == "" {
		msg = MessageFailed
	}

	return NewPushResult(StatusFailed, msg, traceId)
}

// NewGroupResult returns a group result with empty data, as used for
// terminal group conditions and the asynchronous acknowledgement.
func NewGroupResult(status Status, message, traceId string) GroupResult {
	return GroupResult{
		Status:  status,
		Message: message,
		Type:    TypeGroup,
		TraceId: traceId,
		Data:    GroupData{Details: []Outcome{}},
	}
}

// GroupResultFromDetails counts the outcomes and derives the overall status.
func GroupResultFromDetails(details []Outcome, traceId string) GroupResult {
	data := GroupData{Total: len(details), Details: details}
	for _, o := range details {
		switch o.Status {
		case StatusSuccess:
			data.SuccessCount++
		case StatusFailed:
			data.FailedCount++
		case StatusSkipped:
			data.SkippedCount++
		}
	}

	status := DeriveGroupStatus(data.SuccessCount, data.FailedCount, data.SkippedCount)
	msg := fmt.Sprintf("group push completed (success: %d, failed: %d, skipped: %d)", data.SuccessCount, data.FailedCount, data.SkippedCount)

	return GroupResult{
		Status:  status,
		Message: msg,
		Type:    TypeGroup,
		TraceId: traceId,
		Data:    data,
	}
}

// DeriveGroupStatus: failed when nothing succeeded and something failed,
// success when nothing failed or was skipped, partial otherwise. A group
// whose members were all skipped is therefore partial.
func DeriveGroupStatus(success, failed, skipped int) Status {
	if success == 0 && failed > 0 {
		return StatusFailed
	}
	if failed == 0 && skipped == 0 {
		return StatusSuccess
	}

	return StatusPartial
}
