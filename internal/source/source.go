// Package source provides the two interchangeable request backlogs: an
// object-store bucket re-listed on every poll and an SQS queue long-polled one
// message at a time.
package source

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Fetch when the request is gone; callers treat it
// as already consumed.
var ErrNotFound = errors.New("pending request not found")

// Source is the backlog of pending widget requests.
type Source interface {
	// Name identifies the backend in logs ("bucket" or "queue").
	Name() string
	// Poll returns the ids of currently pending requests in processing order.
	Poll(ctx context.Context) ([]string, error)
	// Fetch returns the request body for id.
	Fetch(ctx context.Context, id string) ([]byte, error)
	// Ack removes id from the backlog.
	Ack(ctx context.Context, id string) error
}
