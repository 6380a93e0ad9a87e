// Package activity implements the activity block: it tracks how long the
// user has been active, counts down an idle break, and escalates severity
// as the active stretch grows.
package activity

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/Veraticus/activitybar/pkg/idle"
	"github.com/Veraticus/activitybar/pkg/interfaces"
	"github.com/Veraticus/activitybar/pkg/types"
)

// Name is the block name reported to the bar.
const Name = "activity"

// Phase classifies the user's state on a tick.
type Phase int

const (
	PhaseActive Phase = iota
	PhaseIdle
	PhaseAwayComplete
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseActive:
		return "active"
	case PhaseIdle:
		return "idle"
	case PhaseAwayComplete:
		return "away"
	default:
		return "unknown"
	}
}

// Config holds the block's timing parameters.
type Config struct {
	Interval      time.Duration
	ResetTime     time.Duration
	IdleThreshold time.Duration
}

// OpenFunc acquires the idle reader the block will own.
type OpenFunc func() (interfaces.IdleReader, error)

// Option customizes a Block.
type Option func(*Block)

// WithClock sets the time source. Defaults to the wall clock.
func WithClock(clock interfaces.Clock) Option {
	return func(b *Block) {
		b.clock = clock
	}
}

// WithLogger sets the logger. Defaults to discarding output.
func WithLogger(logger *log.Logger) Option {
	return func(b *Block) {
		b.logger = logger
	}
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Block is the activity state machine. It is not safe for concurrent use;
// the host drives Update and Click from a single goroutine.
type Block struct {
	id     string
	reader interfaces.IdleReader
	clock  interfaces.Clock
	logger *log.Logger

	interval      time.Duration
	resetTime     time.Duration
	idleThreshold time.Duration

	// startTime anchors the active countup.
	startTime time.Time
	// idleStartTime and idleLastReading detect a frozen idle reading.
	// They change together and only when the raw reading changes.
	idleStartTime   time.Time
	idleLastReading uint64

	phase  Phase
	closed bool
}

// New opens the idle reader and starts the active countup. A failure to
// open the reader is fatal for the block.
func New(cfg Config, open OpenFunc, opts ...Option) (*Block, error) {
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %v", cfg.Interval)
	}
	if cfg.IdleThreshold > cfg.ResetTime {
		return nil, fmt.Errorf("idle threshold %v exceeds reset time %v", cfg.IdleThreshold, cfg.ResetTime)
	}

	b := &Block{
		id:            uuid.NewString(),
		clock:         systemClock{},
		logger:        log.New(io.Discard),
		interval:      cfg.Interval,
		resetTime:     cfg.ResetTime,
		idleThreshold: cfg.IdleThreshold,
	}
	for _, opt := range opts {
		opt(b)
	}

	reader, err := open()
	if err != nil {
		return nil, fmt.Errorf("open idle reader: %w", err)
	}
	b.reader = reader

	now := b.clock.Now()
	b.startTime = now
	b.idleStartTime = now

	return b, nil
}

// ID returns the block's instance id.
func (b *Block) ID() string {
	return b.id
}

// Phase returns the phase computed by the last Update.
func (b *Block) Phase() Phase {
	return b.phase
}

// Update reads the idle signal, classifies the current phase and returns
// the text and severity to render.
func (b *Block) Update() types.Update {
	now := b.clock.Now()
	raw := b.readIdle()

	// Some idle providers freeze while a locker holds the screen, even
	// though real time moves on. When the reading has not changed for at
	// least the idle threshold, add the stall time on top of it.
	idleMs := raw
	if raw == b.idleLastReading {
		stalled := wholeSeconds(now.Sub(b.idleStartTime))
		if stalled >= wholeSeconds(b.idleThreshold) {
			idleMs += stalled * 1000
		}
	} else {
		b.idleStartTime = now
		b.idleLastReading = raw
	}
	idleSeconds := idleMs / 1000

	phase, elapsed, severity := Classify(idleSeconds, wholeSeconds(now.Sub(b.startTime)), b.idleThreshold, b.resetTime)
	if phase == PhaseAwayComplete {
		b.startTime = now
	}

	if phase != b.phase {
		b.logger.Debug("phase changed", "from", b.phase, "to", phase, "idle_seconds", idleSeconds)
		b.phase = phase
	}

	return types.Update{
		Name:     Name,
		Instance: b.id,
		Text:     FormatElapsed(elapsed),
		Severity: severity,
		Every:    b.interval,
	}
}

// readIdle returns the raw idle milliseconds. Unsupported means zero; any
// other failure keeps the last reading so the tick still classifies.
func (b *Block) readIdle() uint64 {
	ms, err := b.reader.IdleMillis()
	switch {
	case err == nil:
		return ms
	case errors.Is(err, idle.ErrUnsupported):
		return 0
	default:
		b.logger.Debug("idle query failed, keeping last reading", "err", err, "last_ms", b.idleLastReading)
		return b.idleLastReading
	}
}

// Click restarts the active countup. The idle tracking is left alone, so
// the next Update still reports idle if the idle signal says so.
func (b *Block) Click() {
	b.startTime = b.clock.Now()
	b.logger.Debug("active countup reset by click")
}

// Close releases the idle reader. Later calls are no-ops.
func (b *Block) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	if err := b.reader.Close(); err != nil {
		return fmt.Errorf("close idle reader: %w", err)
	}
	return nil
}
