package publishers

import "context"

// Publisher sends board notices to a downstream sink (SQS, SNS, Pub/Sub, HTTP).
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt Event) error
}

// closer is implemented by publishers that hold connections.
type closer interface {
	Close() error
}
