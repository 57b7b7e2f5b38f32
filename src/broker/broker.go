// Package broker publishes archive events so other systems can react to newly
// archived build logs.
package broker

import "context"

// TopicLogsArchived receives one message per log file written to the archive.
// Key is the build id, value is the JSON-encoded store.ArchivedLog.
const TopicLogsArchived = "azdo_logs_archived"

// Broker abstracts message publishing.
// Implemented in-memory (default) and by Redpanda/Kafka.
type Broker interface {
	// Publish sends a message to a topic with an optional key for partitioning.
	// For the in-memory broker, key is only recorded.
	Publish(ctx context.Context, topic string, key string, value []byte) error

	// Close shuts down the broker connection gracefully.
	Close() error
}

// Message represents a published message.
type Message struct {
	Topic string
	Key   string
	Value []byte
}
