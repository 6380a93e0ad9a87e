// Package interfaces defines the core interfaces used throughout the application.
package interfaces

import (
	"time"

	"github.com/Veraticus/activitybar/pkg/types"
)

// IdleReader reports the time since the last user input.
type IdleReader interface {
	// IdleMillis returns milliseconds since the last input event.
	// idle.ErrUnsupported means the platform cannot tell.
	IdleMillis() (uint64, error)
	Close() error
}

// Clock is the time source used for elapsed-time logic.
type Clock interface {
	Now() time.Time
}

// Renderer draws block updates for the host bar.
type Renderer interface {
	Render(updates ...types.Update) error
}

// Block is a bar block driven by the host loop.
type Block interface {
	ID() string
	Update() types.Update
	Click()
}
