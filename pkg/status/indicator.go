package status

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/activitybar/pkg/interfaces"
	"github.com/Veraticus/activitybar/pkg/types"
)

// Indicator draws block updates on a single terminal line
type Indicator struct {
	mu      sync.Mutex
	writer  io.Writer
	enabled bool
	styles  map[types.Severity]lipgloss.Style
}

// NewIndicator creates a new terminal indicator
func NewIndicator(writer io.Writer, enabled bool) *Indicator {
	renderer := lipgloss.NewRenderer(writer)
	return &Indicator{
		writer:  writer,
		enabled: enabled,
		styles: map[types.Severity]lipgloss.Style{
			types.SeverityInfo:     renderer.NewStyle(),
			types.SeverityWarning:  renderer.NewStyle().Foreground(lipgloss.Color(ColorWarning)),
			types.SeverityCritical: renderer.NewStyle().Foreground(lipgloss.Color(ColorCritical)).Bold(true),
		},
	}
}

// Render redraws the line with the given updates
func (i *Indicator) Render(updates ...types.Update) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.enabled || i.writer == nil {
		return nil
	}

	parts := make([]string, 0, len(updates))
	for _, u := range updates {
		parts = append(parts, i.styles[u.Severity].Render(u.Text))
	}

	// \r returns to column 0, \033[2K clears whatever the last draw left
	_, err := fmt.Fprintf(i.writer, "\r\033[2K%s", strings.Join(parts, " "))
	return err
}

// Clear removes the indicator line
func (i *Indicator) Clear() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.enabled || i.writer == nil {
		return nil
	}

	_, err := fmt.Fprint(i.writer, "\r\033[2K")
	return err
}

// Ensure Indicator implements Renderer
var _ interfaces.Renderer = (*Indicator)(nil)
