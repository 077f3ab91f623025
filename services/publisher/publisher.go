package publisher

// Publisher represents a sink for newly discovered deals
type Publisher interface {
	// Publish publishes a newly inserted deal record
	Publish(term string, message []byte) error

	// Close closes the publisher
	Close() error
}
