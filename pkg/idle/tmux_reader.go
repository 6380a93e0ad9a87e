package idle

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// commandTimeout bounds every external command a reader runs, keeping the
// host loop live if the command hangs.
const commandTimeout = 2 * time.Second

// defaultCmdExecutor executes a command and returns its output.
func defaultCmdExecutor(name string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.Output()
}

// TmuxReader derives idle time from tmux client activity.
type TmuxReader struct {
	sessionName string
	cmdExecutor func(name string, args ...string) ([]byte, error)
	now         func() time.Time
	closed      bool
}

// NewTmuxReader creates a new tmux idle reader.
// If sessionName is empty, it will attempt to detect the current session.
func NewTmuxReader(sessionName string) *TmuxReader {
	return &TmuxReader{
		sessionName: sessionName,
		cmdExecutor: defaultCmdExecutor,
		now:         time.Now,
	}
}

// IdleMillis returns the time since the most recent client activity in
// the session. Outside tmux it returns ErrUnsupported.
func (r *TmuxReader) IdleMillis() (uint64, error) {
	if r.closed {
		return 0, ErrClosed
	}
	if !r.isInTmux() {
		return 0, ErrUnsupported
	}

	sessionName := r.sessionName
	if sessionName == "" {
		name, err := r.getCurrentSessionName()
		if err != nil {
			return 0, fmt.Errorf("failed to get current session name: %w", err)
		}
		sessionName = name
	}

	idleTime, err := r.getSessionIdleTime(sessionName)
	if err != nil {
		return 0, fmt.Errorf("failed to get session idle time: %w", err)
	}

	return uint64(idleTime.Milliseconds()), nil
}

// Close marks the reader closed. tmux holds nothing on our behalf.
func (r *TmuxReader) Close() error {
	r.closed = true
	return nil
}

// isInTmux checks if we're running inside a tmux session.
func (r *TmuxReader) isInTmux() bool {
	return os.Getenv("TMUX") != ""
}

// getCurrentSessionName gets the name of the current tmux session.
func (r *TmuxReader) getCurrentSessionName() (string, error) {
	output, err := r.cmdExecutor("tmux", "display-message", "-p", "#{session_name}")
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(output)), nil
}

// getSessionIdleTime gets the minimum idle time across all clients in a session.
func (r *TmuxReader) getSessionIdleTime(sessionName string) (time.Duration, error) {
	// client_activity is seconds since epoch
	output, err := r.cmdExecutor("tmux", "list-clients", "-t", sessionName, "-F", "#{client_activity}")
	if err != nil {
		return 0, err
	}

	var mostRecentActivity time.Time
	for _, line := range bytes.Split(bytes.TrimSpace(output), []byte("\n")) {
		if len(line) == 0 {
			continue
		}

		activitySecs, err := strconv.ParseInt(string(line), 10, 64)
		if err != nil {
			continue
		}

		activityTime := time.Unix(activitySecs, 0)
		if mostRecentActivity.IsZero() || activityTime.After(mostRecentActivity) {
			mostRecentActivity = activityTime
		}
	}

	if mostRecentActivity.IsZero() {
		return 0, fmt.Errorf("no client activity for session %s", sessionName)
	}

	idleTime := r.now().Sub(mostRecentActivity)
	if idleTime < 0 {
		// Clock skew between us and the tmux server
		idleTime = 0
	}

	return idleTime, nil
}

// IsAvailable checks if tmux is available and we're in a tmux session.
func (r *TmuxReader) IsAvailable() bool {
	if !r.isInTmux() {
		return false
	}

	_, err := r.cmdExecutor("tmux", "-V")
	return err == nil
}
