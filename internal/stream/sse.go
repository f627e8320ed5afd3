package stream

import (
	"bufio"
	"io"
	"strings"
)

// sseEvent is one decoded Server-Sent-Events record.
type sseEvent struct {
	Event string
	Data  string
}

// sseScanner incrementally decodes SSE framing from a byte stream: records
// are blocks of "field: value" lines terminated by a blank line. Only the
// event and data fields are kept; id/retry and comment lines are skipped.
type sseScanner struct {
	reader *bufio.Reader
}

func newSSEScanner(r io.Reader) *sseScanner {
	return &sseScanner{reader: bufio.NewReader(r)}
}

// Next blocks until a complete record arrives and returns it. At end of
// stream it returns io.EOF; a final unterminated record is still delivered.
func (s *sseScanner) Next() (sseEvent, error) {
	var ev sseEvent
	var dataLines []string
	started := false

	flush := func() sseEvent {
		ev.Data = strings.Join(dataLines, "\n")
		return ev
	}

	for {
		line, err := s.reader.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")

		switch {
		case err == nil && line == "":
			if started {
				return flush(), nil
			}
			// stray blank line between records
		case line == "" || strings.HasPrefix(line, ":"):
			// comment or trailing fragment, nothing to record
		default:
			field, value, _ := strings.Cut(line, ":")
			value = strings.TrimPrefix(value, " ")
			switch field {
			case "event":
				ev.Event = value
				started = true
			case "data":
				dataLines = append(dataLines, value)
				started = true
			}
		}

		if err != nil {
			if err == io.EOF && started {
				return flush(), nil
			}
			return sseEvent{}, err
		}
	}
}
