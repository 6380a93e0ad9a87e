// Package status renders block updates for the host bar and drives the
// update loop.
package status

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/Veraticus/activitybar/pkg/interfaces"
	"github.com/Veraticus/activitybar/pkg/types"
)

// Colors used for each severity in i3bar output. Info keeps the bar's
// default color.
const (
	ColorWarning  = "#FFFF00"
	ColorCritical = "#FF0000"
)

// i3Header is the protocol header sent once before the status lines
type i3Header struct {
	Version     int  `json:"version"`
	ClickEvents bool `json:"click_events"`
}

// i3Block is one block in a status line
type i3Block struct {
	FullText string `json:"full_text"`
	Name     string `json:"name,omitempty"`
	Instance string `json:"instance,omitempty"`
	Color    string `json:"color,omitempty"`
	Urgent   bool   `json:"urgent,omitempty"`
}

// I3Bar writes the i3bar JSON protocol: a header, then an endless array
// with one status line per Render.
type I3Bar struct {
	mu      sync.Mutex
	writer  io.Writer
	started bool
}

// NewI3Bar creates a renderer writing to w, normally stdout
func NewI3Bar(w io.Writer) *I3Bar {
	return &I3Bar{writer: w}
}

// Render writes one status line
func (b *I3Bar) Render(updates ...types.Update) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	blocks := make([]i3Block, 0, len(updates))
	for _, u := range updates {
		blocks = append(blocks, toI3Block(u))
	}
	line, err := json.Marshal(blocks)
	if err != nil {
		return fmt.Errorf("failed to encode status line: %w", err)
	}

	if !b.started {
		header, err := json.Marshal(i3Header{Version: 1, ClickEvents: true})
		if err != nil {
			return fmt.Errorf("failed to encode header: %w", err)
		}
		if _, err := fmt.Fprintf(b.writer, "%s\n[\n", header); err != nil {
			return err
		}
		b.started = true
		_, err = fmt.Fprintf(b.writer, "%s\n", line)
		return err
	}

	_, err = fmt.Fprintf(b.writer, ",%s\n", line)
	return err
}

func toI3Block(u types.Update) i3Block {
	block := i3Block{
		FullText: u.Text,
		Name:     u.Name,
		Instance: u.Instance,
	}
	switch u.Severity {
	case types.SeverityWarning:
		block.Color = ColorWarning
	case types.SeverityCritical:
		block.Color = ColorCritical
		block.Urgent = true
	}
	return block
}

// Ensure I3Bar implements Renderer
var _ interfaces.Renderer = (*I3Bar)(nil)
