package logs

import (
	"context"
	"errors"

	"peaceproc/internal/logging"
)

// Options controls Stream.
type Options struct {
	Lines     int
	Follow    bool
	SessionID string
	Component string
}

// Stream emits the last opts.Lines events and, when following, every event
// published afterwards. It returns true when at least one event was emitted.
// Cancelling ctx ends a follow without error.
func Stream(ctx context.Context, client *StreamClient, opts Options, onEvent func(logging.LogEvent)) (bool, error) {
	query := StreamQuery{
		Limit:     opts.Lines,
		Tail:      true,
		SessionID: opts.SessionID,
		Component: opts.Component,
	}
	if query.Limit <= 0 {
		query.Limit = 200
	}

	printed := false
	for {
		resp, err := client.Fetch(ctx, query)
		if err != nil {
			if opts.Follow && errors.Is(ctx.Err(), context.Canceled) {
				return printed, nil
			}
			return printed, err
		}
		for _, evt := range resp.Events {
			if onEvent != nil {
				onEvent(evt)
			}
			printed = true
		}
		if !opts.Follow {
			return printed, nil
		}
		query.Since = resp.Next
		query.Limit = 200
		query.Tail = false
		query.Follow = true
	}
}
