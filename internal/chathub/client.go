// Package chathub keeps the websocket connections of anonymous web reporters.
// Inbound frames become events for the dispatcher; outbound messages are fanned
// out through Redis Pub/Sub so any instance can reach any connected reporter.
package chathub

import "trustline/backend/internal/models"

// ChannelPrefix marks channel refs of web reporters.
const ChannelPrefix = "ws:"

// ChannelRef builds the channel ref of an anonymous web reporter.
func ChannelRef(anonID string) string { return ChannelPrefix + anonID }

// Client is one live connection of a web reporter.
type Client interface {
	// GetAnonID returns the anonymous id from the reporter's token.
	GetAnonID() string

	// GetSendChannel returns the channel the hub writes outbound frames to.
	GetSendChannel() chan<- models.WebFrame

	// Run starts the read and write pumps.
	Run()
	// Close stops the write pump. Only the hub calls it, once.
	Close()
}
