package status

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"

	"github.com/charmbracelet/log"
)

// ClickEvent is a click reported by i3bar on stdin
type ClickEvent struct {
	Name     string `json:"name"`
	Instance string `json:"instance"`
	Button   int    `json:"button"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
}

// ReadClicks parses the i3bar click stream from r until EOF or ctx is
// done. The stream is an endless JSON array, one event per line, each
// after the first prefixed with a comma. Malformed lines are skipped.
func ReadClicks(ctx context.Context, r io.Reader, logger *log.Logger) <-chan ClickEvent {
	events := make(chan ClickEvent)

	go func() {
		defer close(events)

		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			line = bytes.TrimPrefix(line, []byte(","))
			line = bytes.TrimPrefix(line, []byte("["))
			line = bytes.TrimSpace(line)
			if len(line) == 0 {
				continue
			}

			var ev ClickEvent
			if err := json.Unmarshal(line, &ev); err != nil {
				logger.Debug("skipping malformed click event", "line", string(line), "err", err)
				continue
			}

			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}

		if err := scanner.Err(); err != nil {
			logger.Warn("click event stream failed", "err", err)
		}
	}()

	return events
}
