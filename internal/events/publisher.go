// Package events publishes domain events for downstream consumers such as
// the notification mailer.
package events

import (
	"context"
	"sync"
)

const (
	TopicGigs     = "gig_events"
	TopicMessages = "message_events"
	TopicReviews  = "review_events"
)

type Publisher interface {
	Publish(ctx context.Context, topic, key string, event any) error
	Close() error
}

// Nop drops every event. It is used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, string, any) error { return nil }
func (Nop) Close() error                                       { return nil }

type Record struct {
	Topic string
	Key   string
	Event any
}

// Memory keeps published events in order, for tests and local runs.
type Memory struct {
	mu      sync.Mutex
	records []Record
}

func (m *Memory) Publish(_ context.Context, topic, key string, event any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, Record{Topic: topic, Key: key, Event: event})
	return nil
}

func (m *Memory) Close() error { return nil }

func (m *Memory) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, len(m.records))
	copy(out, m.records)
	return out
}
