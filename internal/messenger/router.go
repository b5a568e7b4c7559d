// Package messenger routes outbound messages to the transport that owns the
// channel ref scheme ("tg:", "ws:").
package messenger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"trustline/backend/internal/models"
)

var ErrUnknownChannel = errors.New("messenger: no transport for channel")

// Transport is one outbound channel implementation.
type Transport interface {
	SendMessage(ctx context.Context, msg models.OutboundMessage) error
	AcknowledgeCallback(ctx context.Context, callbackID string) error
}

type route struct {
	prefix    string
	transport Transport
}

// Router implements bot.Messenger on top of several transports.
type Router struct {
	routes    []route
	callbacks Transport
}

// NewRouter creates a router. Callback ids carry no scheme, so acknowledgements
// go to callbacks, the transport whose buttons have a loading state.
func NewRouter(callbacks Transport) *Router {
	return &Router{callbacks: callbacks}
}

// Handle registers t for channel refs starting with prefix.
func (r *Router) Handle(prefix string, t Transport) *Router {
	r.routes = append(r.routes, route{prefix: prefix, transport: t})
	return r
}

func (r *Router) SendMessage(ctx context.Context, msg models.OutboundMessage) error {
	for _, rt := range r.routes {
		if strings.HasPrefix(msg.ChannelRef, rt.prefix) {
			return rt.transport.SendMessage(ctx, msg)
		}
	}
	return fmt.Errorf("%w %q", ErrUnknownChannel, msg.ChannelRef)
}

func (r *Router) AcknowledgeCallback(ctx context.Context, callbackID string) error {
	if r.callbacks == nil || callbackID == "" {
		return nil
	}
	return r.callbacks.AcknowledgeCallback(ctx, callbackID)
}
