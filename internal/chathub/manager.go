package chathub

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"trustline/backend/internal/models"

	"github.com/redis/go-redis/v9"
)

// FramesChannel is the Redis Pub/Sub channel carrying frames for web reporters.
const FramesChannel = "web:frames"

// EventDispatcher accepts normalized events.
type EventDispatcher interface {
	Dispatch(ctx context.Context, ev models.Event) error
}

// FramePublisher is the Redis side of the hub. *storage.Service implements it.
type FramePublisher interface {
	PublishFrame(ctx context.Context, channel string, payload any) error
	SubscribeFrames(ctx context.Context, channel string) *redis.PubSub
}

// envelope is what travels through Pub/Sub: the target ref and the frame for it.
type envelope struct {
	ChannelRef string          `json:"channel_ref"`
	Frame      models.WebFrame `json:"frame"`
}

// ManagerService tracks connected web reporters. Register and unregister go
// through the Run loop; the clients map is also read by local delivery.
type ManagerService struct {
	mu      sync.RWMutex
	clients map[string]Client

	RegisterCh   chan Client
	UnregisterCh chan Client
	pubSubCh     chan envelope

	dispatcher EventDispatcher
	publisher  FramePublisher

	ctx    context.Context
	cancel context.CancelFunc
}

// NewManagerService creates the hub. publisher may be nil, in which case
// frames are delivered only to clients of this instance.
func NewManagerService(d EventDispatcher, publisher FramePublisher) *ManagerService {
	ctx, cancel := context.WithCancel(context.Background())
	return &ManagerService{
		clients:      make(map[string]Client),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		pubSubCh:     make(chan envelope, 64),
		dispatcher:   d,
		publisher:    publisher,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Run serves register/unregister requests and Pub/Sub deliveries until ctx is cancelled.
func (m *ManagerService) Run(ctx context.Context) {
	defer m.shutdown()
	if m.publisher != nil {
		if err := m.startPubSubListener(ctx); err != nil {
			log.Printf("ERROR: web hub pub/sub: %v", err)
			return
		}
	}
	log.Println("INFO: Web hub started")

	for {
		select {
		case <-ctx.Done():
			return
		case c := <-m.RegisterCh:
			m.register(c)
		case c := <-m.UnregisterCh:
			m.unregister(c)
		case env := <-m.pubSubCh:
			m.deliver(env)
		}
	}
}

// Register hands a new connection to the Run loop.
func (m *ManagerService) Register(c Client) bool {
	select {
	case m.RegisterCh <- c:
		return true
	case <-m.ctx.Done():
		return false
	}
}

// Unregister hands a finished connection to the Run loop.
func (m *ManagerService) Unregister(c Client) {
	select {
	case m.UnregisterCh <- c:
	case <-m.ctx.Done():
	}
}

// Connected reports whether the reporter holds a connection on this instance.
func (m *ManagerService) Connected(anonID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.clients[anonID]
	return ok
}

// SendMessage implements bot.Messenger for "ws:" refs.
func (m *ManagerService) SendMessage(ctx context.Context, msg models.OutboundMessage) error {
	anonID, ok := strings.CutPrefix(msg.ChannelRef, ChannelPrefix)
	if !ok || anonID == "" {
		return fmt.Errorf("not a web channel ref: %q", msg.ChannelRef)
	}
	env := envelope{ChannelRef: msg.ChannelRef, Frame: frameFromMessage(msg)}
	if m.publisher == nil {
		m.deliver(env)
		return nil
	}
	if err := m.publisher.PublishFrame(ctx, FramesChannel, env); err != nil {
		return fmt.Errorf("publish web frame: %w", err)
	}
	return nil
}

// AcknowledgeCallback is a no-op: web buttons have no pending state to clear.
func (m *ManagerService) AcknowledgeCallback(context.Context, string) error {
	return nil
}

// dispatch передає подію від веб-клієнта диспетчеру.
func (m *ManagerService) dispatch(ev models.Event) {
	if err := m.dispatcher.Dispatch(m.ctx, ev); err != nil && m.ctx.Err() == nil {
		log.Printf("ERROR: dispatch web event of %s: %v", ev.SenderID, err)
	}
}

func (m *ManagerService) register(c Client) {
	m.mu.Lock()
	old, ok := m.clients[c.GetAnonID()]
	m.clients[c.GetAnonID()] = c
	m.mu.Unlock()
	// нове з'єднання того ж репортера витісняє старе
	if ok && old != c {
		old.Close()
	}
}

func (m *ManagerService) unregister(c Client) {
	m.mu.Lock()
	cur, ok := m.clients[c.GetAnonID()]
	if ok && cur == c {
		delete(m.clients, c.GetAnonID())
	}
	m.mu.Unlock()
	if ok && cur == c {
		c.Close()
	}
}

// deliver writes the frame to the local client, if this instance holds it.
// A client whose buffer is full is dropped.
func (m *ManagerService) deliver(env envelope) {
	anonID := strings.TrimPrefix(env.ChannelRef, ChannelPrefix)
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.clients[anonID]
	if !ok {
		return
	}
	select {
	case c.GetSendChannel() <- env.Frame:
	default:
		log.Printf("WARN: web client %s is too slow, dropping connection", anonID)
		delete(m.clients, anonID)
		c.Close()
	}
}

func (m *ManagerService) shutdown() {
	m.cancel()
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, c := range m.clients {
		c.Close()
		delete(m.clients, id)
	}
}

func frameFromMessage(msg models.OutboundMessage) models.WebFrame {
	frameType := models.FrameSystem
	if msg.Origin == models.OriginBridged {
		frameType = models.FrameBridged
	}
	return models.WebFrame{
		Type:        frameType,
		Text:        msg.Text,
		Keyboard:    msg.Keyboard,
		Attachments: msg.Attachments,
	}
}

// eventFromFrame turns an inbound frame into an Event. Only message and
// callback frames are accepted; attachments from the web are not kept
// since the hub has no file store behind it.
func eventFromFrame(anonID string, f models.WebFrame) (models.Event, bool) {
	ev := models.Event{SenderID: anonID, ChannelRef: ChannelRef(anonID)}
	switch f.Type {
	case models.FrameMessage:
		ev.Kind = models.EventMessage
		ev.Text = f.Text
	case models.FrameCallback:
		if f.Payload == "" {
			return models.Event{}, false
		}
		ev.Kind = models.EventCallback
		ev.Payload = f.Payload
	default:
		return models.Event{}, false
	}
	return ev, true
}
