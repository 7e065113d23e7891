package profile

import (
	"errors"
	"strings"
)

// ErrTopicNotFound is returned by strict topic operations when no topic
// with the given name exists.
var ErrTopicNotFound = errors.New("topic not found")

// ErrEmptyTopicName is returned when a topic name is empty after trimming.
var ErrEmptyTopicName = errors.New("topic name is empty")

// CreateOutcome names the result of CreateTopic. Re-declaring an existing
// topic is not an error: it re-activates the topic.
type CreateOutcome int

const (
	TopicCreated CreateOutcome = iota
	TopicReactivated
)

// Topic is a named conversation thread with a bounded history of
// alternating user/model entries, oldest first.
type Topic struct {
	Name    string   `json:"name"`
	History []string `json:"history"`
}

// Profile is the durable per-identity record. ActiveTopic, when non-empty,
// always names an element of Topics; DeleteTopic keeps that invariant.
type Profile struct {
	Identity       int64   `json:"-"`
	DisplayName    string  `json:"display_name"`
	Language       string  `json:"language"`
	ActiveTopic    string  `json:"current_topic"`
	Topics         []Topic `json:"topics"`
	PreferredModel string  `json:"preferred_model,omitempty"`

	// MaxExchanges bounds every topic history to 2*MaxExchanges entries.
	MaxExchanges int `json:"-"`
}

// New creates an empty profile for an identity. Language defaults to "en".
func New(identity int64, displayName, language string, maxExchanges int) *Profile {
	if language == "" {
		language = "en"
	}
	return &Profile{
		Identity:     identity,
		DisplayName:  displayName,
		Language:     language,
		Topics:       []Topic{},
		MaxExchanges: maxExchanges,
	}
}

// HasActiveTopic reports whether a topic is active for this profile.
func (p *Profile) HasActiveTopic() bool {
	return p.ActiveTopic != ""
}

// TopicNames returns the topic names in insertion order.
func (p *Profile) TopicNames() []string {
	names := make([]string, 0, len(p.Topics))
	for _, t := range p.Topics {
		names = append(names, t.Name)
	}
	return names
}

// ActivateTopic sets the active topic. Fails with ErrTopicNotFound without
// mutating anything if no topic has that name.
func (p *Profile) ActivateTopic(name string) error {
	if p.findTopic(name) < 0 {
		return ErrTopicNotFound
	}
	p.ActiveTopic = name
	return nil
}

// ClearActiveTopic removes the active topic selection. Idempotent.
func (p *Profile) ClearActiveTopic() {
	p.ActiveTopic = ""
}

// CreateTopic adds a topic named after the trimmed input and makes it
// active. If the name already exists the existing topic is re-activated
// and TopicReactivated is reported.
func (p *Profile) CreateTopic(name string) (CreateOutcome, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return TopicCreated, ErrEmptyTopicName
	}
	if p.findTopic(name) >= 0 {
		p.ActiveTopic = name
		return TopicReactivated, nil
	}
	p.Topics = append(p.Topics, Topic{Name: name, History: []string{}})
	p.ActiveTopic = name
	return TopicCreated, nil
}

// DeleteTopic removes the named topic, clearing the active topic in the
// same operation when it pointed at the deleted one.
func (p *Profile) DeleteTopic(name string) error {
	i := p.findTopic(name)
	if i < 0 {
		return ErrTopicNotFound
	}
	p.Topics = append(p.Topics[:i], p.Topics[i+1:]...)
	if p.ActiveTopic == name {
		p.ActiveTopic = ""
	}
	return nil
}

// AppendAndTruncate appends entry to the named topic's history, then
// evicts the oldest entries while the history exceeds 2*MaxExchanges.
func (p *Profile) AppendAndTruncate(topicName, entry string) error {
	i := p.findTopic(topicName)
	if i < 0 {
		return ErrTopicNotFound
	}
	history := append(p.Topics[i].History, entry)
	if bound := p.MaxExchanges * 2; bound > 0 {
		for len(history) > bound {
			history = history[1:]
		}
	}
	p.Topics[i].History = history
	return nil
}

// HistoryOf returns the named topic's history, oldest first. Unlike the
// strict write operations this read is lenient: an absent topic yields an
// empty history, the same way "no active topic" means empty context.
func (p *Profile) HistoryOf(topicName string) []string {
	i := p.findTopic(topicName)
	if i < 0 {
		return nil
	}
	return p.Topics[i].History
}

func (p *Profile) findTopic(name string) int {
	for i, t := range p.Topics {
		if t.Name == name {
			return i
		}
	}
	return -1
}
