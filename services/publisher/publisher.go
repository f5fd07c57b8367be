package publisher

// Publisher represents a service for publishing written records downstream
type Publisher interface {
	// Publish publishes a message to a stream
	Publish(key string, message []byte) error

	// TrimStreams trims all streams to the configured maximum length
	TrimStreams() error

	// Close closes the publisher connection
	Close() error
}

// NopPublisher discards everything; used when no Redis is configured
type NopPublisher struct{}

// NewNopPublisher creates a publisher that does nothing
func NewNopPublisher() *NopPublisher {
	return &NopPublisher{}
}

// Publish discards the message
func (p *NopPublisher) Publish(key string, message []byte) error {
	return nil
}

// TrimStreams is a no-op
func (p *NopPublisher) TrimStreams() error {
	return nil
}

// Close is a no-op
func (p *NopPublisher) Close() error {
	return nil
}
