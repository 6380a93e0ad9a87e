package activity

import (
	"fmt"
	"time"

	"github.com/Veraticus/activitybar/pkg/types"
)

// Active countup escalation boundaries, in seconds.
const (
	activeWarningAfter  = 30 * 60
	activeCriticalAfter = 50 * 60
)

// FormatElapsed renders seconds as HHhMMmSS. Hours are not capped.
func FormatElapsed(seconds uint64) string {
	return fmt.Sprintf("%02dh%02dm%02d", seconds/3600, (seconds/60)%60, seconds%60)
}

// ActiveSeverity maps an active countup to its severity tier.
func ActiveSeverity(seconds uint64) types.Severity {
	switch {
	case seconds <= activeWarningAfter:
		return types.SeverityInfo
	case seconds <= activeCriticalAfter:
		return types.SeverityWarning
	default:
		return types.SeverityCritical
	}
}

// Classify picks the phase for idleSeconds and returns the seconds to
// display with their severity. activeSeconds is the countup since the
// active anchor and is only shown in PhaseActive.
func Classify(idleSeconds, activeSeconds uint64, idleThreshold, resetTime time.Duration) (Phase, uint64, types.Severity) {
	reset := wholeSeconds(resetTime)
	threshold := wholeSeconds(idleThreshold)

	switch {
	case idleSeconds >= reset:
		return PhaseAwayComplete, 0, types.SeverityInfo
	case idleSeconds >= threshold:
		remaining := reset - idleSeconds
		if remaining > 0 {
			return PhaseIdle, remaining, types.SeverityWarning
		}
		return PhaseIdle, remaining, types.SeverityInfo
	default:
		return PhaseActive, activeSeconds, ActiveSeverity(activeSeconds)
	}
}

// wholeSeconds truncates d to whole seconds, clamping negatives to zero.
func wholeSeconds(d time.Duration) uint64 {
	if d < 0 {
		return 0
	}
	return uint64(d / time.Second)
}
