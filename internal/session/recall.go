package session

// pushInput appends raw to the recall buffer, evicting the oldest line
// when over capacity, and resets the cursor to the fresh-line position.
func (s *Session) pushInput(raw string) {
	s.input = append(s.input, raw)
	if len(s.input) > recallCap {
		s.input = append([]string(nil), s.input[len(s.input)-recallCap:]...)
	}
	s.cursor = len(s.input) + 1
}

// NavigateHistory moves the recall cursor: direction -1 recalls older
// input, +1 newer. The cursor clamps at both ends. Returns the recalled
// line, or "" at the fresh-line position past the newest entry.
func (s *Session) NavigateHistory(direction int) string {
	if len(s.input) == 0 {
		return ""
	}

	s.cursor += direction
	if s.cursor < 1 {
		s.cursor = 1
	}
	if s.cursor > len(s.input)+1 {
		s.cursor = len(s.input) + 1
	}

	if s.cursor == len(s.input)+1 {
		return ""
	}
	return s.input[s.cursor-1]
}

// InputHistoryLen returns the number of lines in the recall buffer.
func (s *Session) InputHistoryLen() int {
	return len(s.input)
}
