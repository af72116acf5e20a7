package services

import (
	"context"
	"sync"
)

// outbox records every message instead of sending it
type outbox struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

func (o *outbox) Send(ctx context.Context, msg Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.err != nil {
		return o.err
	}
	o.sent = append(o.sent, msg)
	return nil
}

func (o *outbox) messages() []Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Message(nil), o.sent...)
}

// quota allows n requests per key
type quota struct {
	n    int
	used map[string]int
}

func (q *quota) Allow(key string) bool {
	if q.used == nil {
		q.used = make(map[string]int)
	}
	q.used[key]++
	return q.used[key] <= q.n
}
