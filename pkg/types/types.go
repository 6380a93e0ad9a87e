// Package types contains shared data structures used across the application.
package types

import "time"

// Severity is the escalation level attached to a rendered block.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityCritical
)

// String returns the lowercase severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Update is what a block hands back to the host after each tick
type Update struct {
	Name     string
	Instance string
	Text     string
	Severity Severity
	// Every is the delay before the host should tick the block again.
	Every time.Duration
}
