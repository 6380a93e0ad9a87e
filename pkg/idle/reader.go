// Package idle provides platform idle-time readers for the activity block.
package idle

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/activitybar/pkg/interfaces"
)

var (
	// ErrUnsupported means the platform cannot report idle time. Callers
	// treat it as zero idle milliseconds.
	ErrUnsupported = errors.New("idle time query unsupported")

	// ErrClosed is returned by readers queried after Close.
	ErrClosed = errors.New("idle reader closed")
)

// Provider names an idle-time backend.
type Provider string

const (
	ProviderAuto  Provider = "auto"
	ProviderX11   Provider = "x11"
	ProviderTmux  Provider = "tmux"
	ProviderIOReg Provider = "ioreg"
)

// ParseProvider validates a provider name from configuration.
func ParseProvider(s string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case "":
		return ProviderAuto, nil
	case ProviderAuto, ProviderX11, ProviderTmux, ProviderIOReg:
		return p, nil
	default:
		return "", fmt.Errorf("unknown idle provider %q (use auto, x11, tmux or ioreg)", s)
	}
}

// Options selects and parameterizes the backend opened by Open.
type Options struct {
	Provider Provider
	// Display is the X display name, already resolved from the environment.
	Display string
	// TmuxSession limits the tmux backend to one session. Empty means the
	// session the process runs in.
	TmuxSession string
}

// Open acquires the idle-time resource for the selected provider.
// The returned reader owns that resource until Close.
func Open(opts Options) (interfaces.IdleReader, error) {
	provider := opts.Provider
	if provider == "" || provider == ProviderAuto {
		p, err := defaultProvider()
		if err != nil {
			return nil, err
		}
		provider = p
	}

	switch provider {
	case ProviderX11:
		r, err := NewX11Reader(opts.Display)
		if err != nil {
			return nil, fmt.Errorf("open x11 idle reader: %w", err)
		}
		return r, nil
	case ProviderTmux:
		r := NewTmuxReader(opts.TmuxSession)
		if !r.IsAvailable() {
			return nil, fmt.Errorf("open tmux idle reader: not inside a tmux session or tmux not found")
		}
		return r, nil
	case ProviderIOReg:
		r := NewIORegReader()
		if !r.IsAvailable() {
			return nil, fmt.Errorf("open ioreg idle reader: ioreg not found")
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unknown idle provider %q", provider)
	}
}
