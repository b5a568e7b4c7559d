package models

// EventKind distinguishes the two inbound event shapes.
type EventKind string

const (
	EventMessage  EventKind = "message"
	EventCallback EventKind = "callback"
)

// Event is the canonical inbound unit every transport normalizes into.
type Event struct {
	Kind        EventKind    `json:"kind"`
	SenderID    string       `json:"sender_id"`
	ChannelRef  string       `json:"channel_ref"`
	Text        string       `json:"text,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	CallbackID  string       `json:"callback_id,omitempty"`
	Payload     string       `json:"payload,omitempty"`
	Language    string       `json:"language,omitempty"`
}

// Origin marks whether outbound content is a system prompt or a bridged cross-party message.
type Origin string

const (
	OriginSystem  Origin = "system"
	OriginBridged Origin = "bridged"
)

// Button is one inline keyboard button carrying a callback payload.
type Button struct {
	Text    string `json:"text"`
	Payload string `json:"payload"`
}

// Keyboard is a list of button rows.
type Keyboard [][]Button

// OutboundMessage is a send request addressed by channel reference.
type OutboundMessage struct {
	ChannelRef  string       `json:"channel_ref"`
	Text        string       `json:"text"`
	Keyboard    Keyboard     `json:"keyboard,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Origin      Origin       `json:"origin"`
}

// WebFrame types. Clients send message and callback frames; the server sends system and bridged ones.
const (
	FrameMessage  = "message"
	FrameCallback = "callback"
	FrameSystem   = "system"
	FrameBridged  = "bridged"
)

// WebFrame is the JSON frame exchanged with web reporters over websocket.
type WebFrame struct {
	Type        string       `json:"type"`
	Text        string       `json:"text,omitempty"`
	Payload     string       `json:"payload,omitempty"`
	CallbackID  string       `json:"callback_id,omitempty"`
	Keyboard    Keyboard     `json:"keyboard,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}
