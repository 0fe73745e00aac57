package alerts

import "context"

// Publisher publishes raw messages to a subject/topic
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error

	// PublishBatch publishes all messages and returns how many were accepted
	PublishBatch(ctx context.Context, messages []BatchMessage) (int, error)

	Close() error
}

// BatchMessage represents a message for batch publishing
type BatchMessage struct {
	Subject string
	Data    []byte
}

// Subscriber receives raw messages from a subject/topic
type Subscriber interface {
	Subscribe(subject string, handler MessageHandler) error
	Unsubscribe(subject string) error
	Close() error
}

// MessageHandler handles incoming messages. Returning an error asks the
// backend to redeliver where it supports that.
type MessageHandler func(data []byte) error

// Queue combines Publisher and Subscriber interfaces
type Queue interface {
	Publisher
	Subscriber
}
