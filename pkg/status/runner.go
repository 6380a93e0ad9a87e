package status

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Veraticus/activitybar/pkg/interfaces"
	"github.com/Veraticus/activitybar/pkg/types"
)

// Runner is the host loop for one block. Only the Run goroutine touches
// the block, so Update and Click never overlap.
type Runner struct {
	block    interfaces.Block
	renderer interfaces.Renderer
	logger   *log.Logger
}

// NewRunner creates a runner for block
func NewRunner(block interfaces.Block, renderer interfaces.Renderer, logger *log.Logger) *Runner {
	return &Runner{
		block:    block,
		renderer: renderer,
		logger:   logger,
	}
}

// Run ticks the block immediately and then at the interval each update
// asks for. A click for this block resets it and redraws at once. Run
// returns when ctx is done.
func (r *Runner) Run(ctx context.Context, clicks <-chan ClickEvent) error {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
			timer.Reset(r.tick())
		case ev, ok := <-clicks:
			if !ok {
				clicks = nil
				continue
			}
			if ev.Instance != r.block.ID() {
				continue
			}
			r.logger.Debug("click", "button", ev.Button)
			r.block.Click()
			r.tick()
		}
	}
}

// tick updates and renders the block, returning the next delay
func (r *Runner) tick() time.Duration {
	update := r.block.Update()
	if err := r.renderer.Render(update); err != nil {
		r.logger.Warn("render failed", "err", err)
	}
	if update.Every <= 0 {
		return time.Second
	}
	return update.Every
}

// RunFailed shows a block that failed to start, once, and waits for ctx.
// The failure is not retried.
func RunFailed(ctx context.Context, renderer interfaces.Renderer, name string, cause error, logger *log.Logger) error {
	logger.Error("block failed to start", "block", name, "err", cause)

	update := types.Update{
		Name:     name,
		Text:     fmt.Sprintf("%s: %v", name, cause),
		Severity: types.SeverityCritical,
	}
	if err := renderer.Render(update); err != nil {
		return fmt.Errorf("failed to render error block: %w", err)
	}

	<-ctx.Done()
	return nil
}
