package transport

// Transport is the messaging source/sink abstraction used by the bot loop.
type Transport interface {
	GetUpdates(offset int64, timeout int) ([]Update, error)
	Send(chatID int64, reply Reply) error
}

// Update represents an incoming message event.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

// Message represents a source message.
type Message struct {
	Chat Chat    `json:"chat"`
	Text *string `json:"text,omitempty"`
	Date int64   `json:"date"`
}

// Chat identifies a conversation; its ID doubles as the user identity for
// private chats.
type Chat struct {
	ID int64 `json:"id"`
}

// Reply is an outbound message. Choices, when present, are offered to the
// user as mutually exclusive short answers; how they render is up to the
// transport.
type Reply struct {
	Text    string
	Choices []string
}
