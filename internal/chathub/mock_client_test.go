package chathub_test

import (
	"context"
	"sync"

	"trustline/backend/internal/models"
)

type MockClient struct {
	anonID      string
	RecvChannel chan models.WebFrame

	mu     sync.Mutex
	closed bool
}

func newMockClient(anonID string, buffer int) *MockClient {
	return &MockClient{
		anonID:      anonID,
		RecvChannel: make(chan models.WebFrame, buffer),
	}
}

func (c *MockClient) GetAnonID() string                      { return c.anonID }
func (c *MockClient) GetSendChannel() chan<- models.WebFrame { return c.RecvChannel }
func (c *MockClient) Run()                                   {}

func (c *MockClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *MockClient) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// recordingDispatcher keeps every dispatched event.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []models.Event
}

func (d *recordingDispatcher) Dispatch(_ context.Context, ev models.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, ev)
	return nil
}

func (d *recordingDispatcher) snapshot() []models.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]models.Event(nil), d.events...)
}
