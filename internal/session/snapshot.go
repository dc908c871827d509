package session

import (
	"encoding/json"
	"fmt"
)

// snapshot is the serialized session state. The session itself never
// touches disk; the host decides where (and whether) snapshots live.
type snapshot struct {
	Entries      []Entry  `json:"entries"`
	InputHistory []string `json:"input_history"`
}

// Snapshot serializes the conversation entries and recall buffer.
func (s *Session) Snapshot() ([]byte, error) {
	return json.Marshal(snapshot{
		Entries:      s.History(),
		InputHistory: append([]string(nil), s.input...),
	})
}

// Restore replaces the session state with a previously taken snapshot.
// Entries that were still Pending or Loading when the snapshot was taken
// have no request backing them anymore and come back Failed.
func (s *Session) Restore(data []byte) error {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("invalid snapshot: %w", err)
	}

	entries := make([]*Entry, 0, len(snap.Entries))
	for _, e := range snap.Entries {
		entry := e
		if !entry.State.terminal() {
			entry.State = StateFailed
			entry.ErrorMessage = "interrupted before completion"
		}
		entries = append(entries, &entry)
	}
	if len(entries) > s.maxHistory {
		entries = entries[len(entries)-s.maxHistory:]
	}

	input := snap.InputHistory
	if len(input) > recallCap {
		input = input[len(input)-recallCap:]
	}

	s.entries = entries
	s.input = append([]string(nil), input...)
	s.cursor = len(s.input) + 1
	s.notify()
	return nil
}
