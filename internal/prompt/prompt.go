package prompt

import "strings"

// Builder turns a topic's history plus the new message into a single
// completion payload. It is pure: persistence of the exchange is the
// caller's responsibility.
type Builder struct{}

// Build returns the payload for newMessage. Without history the payload
// is the new message alone. With history it is the ordered concatenation
// of history and the new message, one turn per line, never reordered.
func (b *Builder) Build(history []string, newMessage string) string {
	if len(history) == 0 {
		return newMessage
	}
	parts := make([]string, 0, len(history)+1)
	parts = append(parts, history...)
	parts = append(parts, newMessage)
	return strings.Join(parts, "\n")
}
