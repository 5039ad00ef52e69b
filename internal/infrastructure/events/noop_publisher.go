package events

import (
	"context"

	"qualtrack/internal/ports"
)

// NoopPublisher is used when no broker is configured.
type NoopPublisher struct{}

var _ ports.StatusPublisher = NoopPublisher{}

func (NoopPublisher) PublishStatusChange(context.Context, ports.StatusChange) error {
	return nil
}
