package genai

import (
	"context"
	"strings"
)

// Dummy is an offline provider that echoes the last line of the payload.
// Useful for running the bot without an API key.
type Dummy struct {
	Catalog *Catalog
}

// GenerateText echoes the final turn of the payload.
func (d *Dummy) GenerateText(_ context.Context, _, payload string) (string, error) {
	lines := strings.Split(payload, "\n")
	return "echo: " + lines[len(lines)-1], nil
}

// GenerateImage returns a placeholder reference.
func (d *Dummy) GenerateImage(_ context.Context, _ string) (string, error) {
	return "https://example.invalid/dummy.png", nil
}

// AvailableModels returns the full allow-list.
func (d *Dummy) AvailableModels(_ context.Context) ([]string, error) {
	return d.Catalog.Allowed(), nil
}
