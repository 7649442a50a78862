package assistant

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
)

// maxEventSize bounds a single SSE line. Completed messages arrive in one
// data line and can be long.
const maxEventSize = 4 * 1024 * 1024

// readEvents parses a run stream body into events. The sequence ends after
// a done event, at EOF, or after the first error.
//
// SSE format expected:
//
//	event: thread.message.completed\n
//	data: {"id":"msg_...","content":[...]}\n
//	\n
//	event: done\n
//	data: [DONE]\n
//	\n
func readEvents(body io.Reader) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		scanner := bufio.NewScanner(body)
		scanner.Buffer(make([]byte, 0, 64*1024), maxEventSize)

		var (
			name    string
			data    strings.Builder
			pending bool
		)

		// dispatch decodes the buffered event and reports whether reading
		// should continue.
		dispatch := func() bool {
			if !pending {
				return true
			}
			ev, err := decodeEvent(name, []byte(data.String()))
			name, pending = "", false
			data.Reset()

			if err != nil {
				yield(Event{}, err)
				return false
			}
			if !yield(ev, nil) {
				return false
			}
			return ev.Type != EventDone
		}

		for scanner.Scan() {
			line := scanner.Text()

			switch {
			case line == "":
				if !dispatch() {
					return
				}
			case strings.HasPrefix(line, ":"):
				// comment / keep-alive
			case strings.HasPrefix(line, "event:"):
				name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
				pending = true
			case strings.HasPrefix(line, "data:"):
				if data.Len() > 0 {
					data.WriteByte('\n')
				}
				data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
				pending = true
			}
		}

		switch err := scanner.Err(); {
		case errors.Is(err, bufio.ErrTooLong):
			// local buffer limit, not a service failure
			yield(Event{}, fmt.Errorf("run stream line exceeds %d bytes: %w", maxEventSize, err))
			return
		case err != nil:
			yield(Event{}, &UpstreamError{
				Op:      "stream run",
				Message: "stream read error: " + err.Error(),
				Err:     err,
			})
			return
		}

		// The service may close the body without a trailing blank line.
		dispatch()
	}
}
