package idle

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// IORegReader reads the macOS HID idle time using ioreg.
type IORegReader struct {
	cmdExecutor func(name string, args ...string) ([]byte, error)
	closed      bool
}

// NewIORegReader creates a new ioreg idle reader.
func NewIORegReader() *IORegReader {
	return &IORegReader{
		cmdExecutor: defaultCmdExecutor,
	}
}

// IdleMillis returns HIDIdleTime in milliseconds.
// Output without a HIDIdleTime entry means the query is unsupported.
func (r *IORegReader) IdleMillis() (uint64, error) {
	if r.closed {
		return 0, ErrClosed
	}

	output, err := r.cmdExecutor("ioreg", "-c", "IOHIDSystem", "-d", "4")
	if err != nil {
		return 0, fmt.Errorf("failed to execute ioreg: %w", err)
	}

	idleNanos, err := parseHIDIdleTime(output)
	if err != nil {
		return 0, err
	}

	return uint64(time.Duration(idleNanos).Milliseconds()), nil
}

// Close marks the reader closed.
func (r *IORegReader) Close() error {
	r.closed = true
	return nil
}

// IsAvailable checks if ioreg is available on the system.
func (r *IORegReader) IsAvailable() bool {
	_, err := r.cmdExecutor("which", "ioreg")
	return err == nil
}

// parseHIDIdleTime parses the HIDIdleTime from ioreg output.
// Format: "HIDIdleTime" = 123456789
func parseHIDIdleTime(output []byte) (int64, error) {
	for _, line := range bytes.Split(output, []byte("\n")) {
		lineStr := string(bytes.TrimSpace(line))
		if !strings.Contains(lineStr, "HIDIdleTime") {
			continue
		}

		parts := strings.Split(lineStr, "=")
		if len(parts) != 2 {
			continue
		}

		valueStr := strings.TrimSpace(strings.Trim(strings.TrimSpace(parts[1]), "\""))
		value, err := strconv.ParseInt(valueStr, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("failed to parse idle time value: %w", err)
		}
		if value < 0 {
			return 0, fmt.Errorf("negative idle time value %d", value)
		}

		return value, nil
	}

	return 0, fmt.Errorf("%w: HIDIdleTime not found in ioreg output", ErrUnsupported)
}
