package status

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Veraticus/activitybar/pkg/types"
)

func TestNewIndicator(t *testing.T) {
	buf := &bytes.Buffer{}
	indicator := NewIndicator(buf, true)

	if indicator.writer != buf {
		t.Errorf("expected writer to be set")
	}

	if !indicator.enabled {
		t.Errorf("expected indicator to be enabled")
	}

	if len(indicator.styles) != 3 {
		t.Errorf("expected a style per severity, got %d", len(indicator.styles))
	}
}

func TestIndicatorRender(t *testing.T) {
	tests := []struct {
		name           string
		update         types.Update
		expectedOutput string
		enabled        bool
	}{
		{
			name:           "info",
			update:         types.Update{Text: "00h12m00", Severity: types.SeverityInfo},
			expectedOutput: "00h12m00",
			enabled:        true,
		},
		{
			name:           "warning",
			update:         types.Update{Text: "00h04m50", Severity: types.SeverityWarning},
			expectedOutput: "00h04m50",
			enabled:        true,
		},
		{
			name:           "critical",
			update:         types.Update{Text: "00h51m00", Severity: types.SeverityCritical},
			expectedOutput: "00h51m00",
			enabled:        true,
		},
		{
			name:           "disabled indicator shows nothing",
			update:         types.Update{Text: "00h00m01"},
			expectedOutput: "",
			enabled:        false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			indicator := NewIndicator(buf, tt.enabled)

			if err := indicator.Render(tt.update); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			output := buf.String()
			if !tt.enabled {
				if output != "" {
					t.Errorf("expected no output for disabled indicator, got %q", output)
				}
				return
			}

			if !strings.HasPrefix(output, "\r\033[2K") {
				t.Errorf("expected line reset prefix, got %q", output)
			}
			if !strings.Contains(output, tt.expectedOutput) {
				t.Errorf("expected output to contain %q, got %q", tt.expectedOutput, output)
			}
		})
	}
}

func TestIndicatorRedrawsInPlace(t *testing.T) {
	buf := &bytes.Buffer{}
	indicator := NewIndicator(buf, true)

	_ = indicator.Render(types.Update{Text: "00h00m01"})
	_ = indicator.Render(types.Update{Text: "00h00m02"})

	output := buf.String()
	if strings.Contains(output, "\n") {
		t.Errorf("expected redraws on one line, got %q", output)
	}
	if strings.Count(output, "\r\033[2K") != 2 {
		t.Errorf("expected 2 line resets, got %q", output)
	}
}

func TestIndicatorClear(t *testing.T) {
	buf := &bytes.Buffer{}
	indicator := NewIndicator(buf, true)

	_ = indicator.Render(types.Update{Text: "00h00m01"})

	buf.Reset()
	if err := indicator.Clear(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	if strings.Contains(output, "00h") {
		t.Errorf("expected cleared output to not contain text, got %q", output)
	}
	if !strings.Contains(output, "\033[") {
		t.Errorf("expected escape sequences in output, got %q", output)
	}
}
