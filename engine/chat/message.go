// Package chat answers visitor questions with retrieval-augmented generation
// and degrades to canned replies when the model is unavailable.
package chat

import (
	"encoding/json"
	"time"

	"github.com/pharens/pharens-ai/engine/core"
)

// Message is one turn of the conversation as the widget keeps it.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	IsBot     bool      `json:"isBot"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage stamps a turn with a fresh KSUID and the current time.
func NewMessage(text string, isBot bool) Message {
	return Message{ID: core.MustNewID().String(), Text: text, IsBot: isBot, Timestamp: time.Now().UTC()}
}

// UnmarshalJSON accepts numeric ids as well as strings.
func (m *Message) UnmarshalJSON(data []byte) error {
	type plain Message
	var raw struct {
		plain
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = Message(raw.plain)
	m.ID = rawID(raw.ID)
	return nil
}

func rawID(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var n json.Number
	if json.Unmarshal(raw, &n) == nil {
		return n.String()
	}
	return ""
}

type Request struct {
	Message             string    `json:"message"`
	ConversationHistory []Message `json:"conversationHistory"`
}

// UnmarshalJSON drops history entries that do not decode instead of
// rejecting the whole request. Only a bad message field is an error.
func (r *Request) UnmarshalJSON(data []byte) error {
	var raw struct {
		Message             string          `json:"message"`
		ConversationHistory json.RawMessage `json:"conversationHistory"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Message = raw.Message
	r.ConversationHistory = nil
	var entries []json.RawMessage
	if json.Unmarshal(raw.ConversationHistory, &entries) != nil {
		return nil
	}
	for _, entry := range entries {
		var m Message
		if json.Unmarshal(entry, &m) == nil {
			r.ConversationHistory = append(r.ConversationHistory, m)
		}
	}
	return nil
}

type Response struct {
	Response string `json:"response"`
}

const (
	WelcomeID   = "welcome"
	WelcomeText = "Hi! I'm Pharens AI Assistant. I can help you with beauty marketing strategies, services, " +
		"and answer any questions about growing your beauty business. How can I assist you today?"
)

// Welcome is the greeting the widget opens with.
func Welcome(now time.Time) Message {
	return Message{ID: WelcomeID, Text: WelcomeText, IsBot: true, Timestamp: now.UTC()}
}
