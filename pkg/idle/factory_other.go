//go:build windows || plan9 || js || wasip1

package idle

import (
	"fmt"
	"runtime"
)

// defaultProvider has no native backend to offer on this platform.
func defaultProvider() (Provider, error) {
	return "", fmt.Errorf("no default idle provider for %s, set provider to tmux", runtime.GOOS)
}
