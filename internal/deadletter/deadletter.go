// Package deadletter holds the sinks that receive requests the consumer gave
// up on, when the failure policy is "dead-letter".
package deadletter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Policy decides what happens to a request that was malformed or whose sink
// writes failed.
type Policy string

const (
	// PolicyDrop acknowledges the request and relies on the logs.
	PolicyDrop Policy = "drop"
	// PolicyDeadLetter forwards the request to a Sink before acknowledging it.
	PolicyDeadLetter Policy = "dead-letter"
)

// ParsePolicy validates a configured policy name.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyDrop, PolicyDeadLetter:
		return Policy(s), nil
	case "":
		return PolicyDrop, nil
	}
	return "", fmt.Errorf("unknown failure policy %q (want %q or %q)", s, PolicyDrop, PolicyDeadLetter)
}

// Reasons a request is dead-lettered.
const (
	ReasonMalformed   = "malformed"
	ReasonSinkFailure = "sink_failure"
)

// Entry is one dead-lettered request.
type Entry struct {
	RequestID string    `json:"request_id"`
	Source    string    `json:"source"`
	Reason    string    `json:"reason"`
	Error     string    `json:"error"`
	Body      string    `json:"body"`
	FailedAt  time.Time `json:"failed_at"`
}

// Marshal encodes the entry as JSON.
func (e Entry) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Sink receives dead-lettered requests.
type Sink interface {
	Send(ctx context.Context, entry Entry) error
}
