package core

import (
	"iter"
	"strings"
)

// Conversation is the ordered message log sent to a model. Insertion order is
// significant: it is the literal dialogue. A Conversation is owned by exactly
// one engine; callers receive copies via Snapshot.
type Conversation struct {
	messages []Message
}

// NewConversation creates a conversation seeded with the given messages.
func NewConversation(msgs ...Message) *Conversation {
	return &Conversation{messages: append([]Message(nil), msgs...)}
}

// Append adds messages to the end of the conversation.
func (c *Conversation) Append(msgs ...Message) {
	c.messages = append(c.messages, msgs...)
}

// Len returns the number of messages.
func (c Conversation) Len() int { return len(c.messages) }

// At returns the message at index i. Negative indexes count from the end
// (-1 is the last message). It panics when out of range, like slice indexing.
func (c Conversation) At(i int) Message {
	if i < 0 {
		i += len(c.messages)
	}
	return c.messages[i]
}

// Last returns the final message and false when the conversation is empty.
func (c Conversation) Last() (Message, bool) {
	if len(c.messages) == 0 {
		return Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// Messages returns a copy of all messages.
func (c Conversation) Messages() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// All iterates over index/message pairs in order.
func (c Conversation) All() iter.Seq2[int, Message] {
	return func(yield func(int, Message) bool) {
		for i, m := range c.messages {
			if !yield(i, m) {
				return
			}
		}
	}
}

// Truncate keeps only the first n messages.
func (c *Conversation) Truncate(n int) {
	if n < len(c.messages) {
		c.messages = c.messages[:n]
	}
}

// Snapshot returns an independent copy safe to hand to callbacks.
func (c Conversation) Snapshot() Conversation {
	return Conversation{messages: c.Messages()}
}

// Dump serializes the conversation to a list of {role, content} records.
func (c Conversation) Dump() []map[string]string {
	out := make([]map[string]string, 0, len(c.messages))
	for _, m := range c.messages {
		out = append(out, m.Dump())
	}
	return out
}

func (c Conversation) String() string {
	lines := make([]string, 0, len(c.messages))
	for _, m := range c.messages {
		lines = append(lines, m.String())
	}
	return strings.Join(lines, "\n")
}
