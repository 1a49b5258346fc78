// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import "github.com/jcluts/personachat/internal/model"

// History is the ordered user/assistant exchange of a session. It never
// contains the system message. The zero value is empty and ready to use.
// Methods never modify the receiver's backing array.
type History struct {
	entries []model.Message
}

// NewHistory returns a history holding a copy of msgs.
func NewHistory(msgs ...model.Message) History {
	return History{entries: append([]model.Message(nil), msgs...)}
}

// Len returns the number of entries.
func (h History) Len() int {
	return len(h.entries)
}

// Messages returns a copy of all entries in order.
func (h History) Messages() []model.Message {
	return append([]model.Message(nil), h.entries...)
}

// Append returns h with the (user, assistant) pair added.
func (h History) Append(user, reply string) History {
	entries := make([]model.Message, len(h.entries), len(h.entries)+2)
	copy(entries, h.entries)
	entries = append(entries, model.NewUserMessage(user), model.NewAssistantMessage(reply))
	return History{entries: entries}
}

// Undo drops the last two entries. It reports false and returns h unchanged
// when fewer than two entries exist.
func (h History) Undo() (History, bool) {
	if len(h.entries) < 2 {
		return h, false
	}
	return History{entries: h.entries[:len(h.entries)-2:len(h.entries)-2]}, true
}

// Reset returns an empty history.
func (h History) Reset() History {
	return History{}
}

// Window returns a copy of the last n entries, oldest first. n <= 0 returns
// none.
func (h History) Window(n int) []model.Message {
	if n <= 0 {
		return nil
	}
	start := len(h.entries) - n
	if start < 0 {
		start = 0
	}
	return append([]model.Message(nil), h.entries[start:]...)
}

// Outbound builds the messages for one turn: the system message, the last n
// history entries and the new user input.
func Outbound(system model.Message, h History, n int, input string) []model.Message {
	window := h.Window(n)
	msgs := make([]model.Message, 0, len(window)+2)
	msgs = append(msgs, system)
	msgs = append(msgs, window...)
	msgs = append(msgs, model.NewUserMessage(input))
	return msgs
}
