package activity

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Veraticus/activitybar/pkg/idle"
	"github.com/Veraticus/activitybar/pkg/interfaces"
	"github.com/Veraticus/activitybar/pkg/testutil"
	"github.com/Veraticus/activitybar/pkg/types"
)

var testConfig = Config{
	Interval:      time.Second,
	ResetTime:     300 * time.Second,
	IdleThreshold: 10 * time.Second,
}

var testStart = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestBlock(t *testing.T, reader *testutil.MockIdleReader) (*Block, *testutil.FakeClock) {
	t.Helper()

	clock := testutil.NewFakeClock(testStart)
	block, err := New(testConfig, func() (interfaces.IdleReader, error) {
		return reader, nil
	}, WithClock(clock))
	if err != nil {
		t.Fatalf("New() unexpected error = %v", err)
	}
	t.Cleanup(func() { _ = block.Close() })

	return block, clock
}

func TestNew(t *testing.T) {
	reader := testutil.NewMockIdleReader(0)
	block, _ := newTestBlock(t, reader)

	if block.ID() == "" {
		t.Error("ID() should not be empty")
	}
	if block.Phase() != PhaseActive {
		t.Errorf("initial Phase() = %v, want active", block.Phase())
	}

	update := block.Update()
	if update.Name != Name {
		t.Errorf("Name = %q, want %q", update.Name, Name)
	}
	if update.Instance != block.ID() {
		t.Errorf("Instance = %q, want %q", update.Instance, block.ID())
	}
	if update.Every != testConfig.Interval {
		t.Errorf("Every = %v, want %v", update.Every, testConfig.Interval)
	}
}

func TestNew_OpenFailureIsFatal(t *testing.T) {
	openErr := errors.New("cannot open display")

	block, err := New(testConfig, func() (interfaces.IdleReader, error) {
		return nil, openErr
	})

	if block != nil {
		t.Error("New() should not return a block on open failure")
	}
	if !errors.Is(err, openErr) {
		t.Errorf("New() error = %v, want wrapping %v", err, openErr)
	}
}

func TestNew_InvalidConfigDoesNotOpen(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{
			name: "zero interval",
			cfg:  Config{ResetTime: time.Minute, IdleThreshold: time.Second},
		},
		{
			name: "threshold above reset",
			cfg:  Config{Interval: time.Second, ResetTime: time.Second, IdleThreshold: time.Minute},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opened := false
			_, err := New(tt.cfg, func() (interfaces.IdleReader, error) {
				opened = true
				return testutil.NewMockIdleReader(0), nil
			})

			if err == nil {
				t.Error("New() expected error")
			}
			if opened {
				t.Error("reader should not be opened for an invalid config")
			}
		})
	}
}

func TestBlock_ActiveCountupSeverity(t *testing.T) {
	tests := []struct {
		elapsed          time.Duration
		expectedText     string
		expectedSeverity types.Severity
	}{
		{elapsed: 0, expectedText: "00h00m00", expectedSeverity: types.SeverityInfo},
		{elapsed: 1800 * time.Second, expectedText: "00h30m00", expectedSeverity: types.SeverityInfo},
		{elapsed: 1801 * time.Second, expectedText: "00h30m01", expectedSeverity: types.SeverityWarning},
		{elapsed: 3000 * time.Second, expectedText: "00h50m00", expectedSeverity: types.SeverityWarning},
		{elapsed: 3001 * time.Second, expectedText: "00h50m01", expectedSeverity: types.SeverityCritical},
		{elapsed: 1500 * time.Millisecond, expectedText: "00h00m01", expectedSeverity: types.SeverityInfo},
	}

	for _, tt := range tests {
		t.Run(tt.expectedText, func(t *testing.T) {
			reader := testutil.NewMockIdleReader(0)
			block, clock := newTestBlock(t, reader)

			clock.Advance(tt.elapsed)
			reader.SetMillis(400)

			update := block.Update()

			if update.Text != tt.expectedText {
				t.Errorf("Text = %q, want %q", update.Text, tt.expectedText)
			}
			if update.Severity != tt.expectedSeverity {
				t.Errorf("Severity = %v, want %v", update.Severity, tt.expectedSeverity)
			}
			if block.Phase() != PhaseActive {
				t.Errorf("Phase() = %v, want active", block.Phase())
			}
		})
	}
}

func TestBlock_ActiveCountupIsMonotonic(t *testing.T) {
	reader := testutil.NewMockIdleReader(0)
	block, clock := newTestBlock(t, reader)

	var last string
	for i := 1; i <= 120; i++ {
		clock.Advance(700 * time.Millisecond)
		// A fresh reading each tick, always under the threshold
		reader.SetMillis(uint64(i%9) * 1000)

		update := block.Update()
		if block.Phase() != PhaseActive {
			t.Fatalf("tick %d: Phase() = %v, want active", i, block.Phase())
		}
		if update.Text < last {
			t.Fatalf("tick %d: countup went backwards: %q after %q", i, update.Text, last)
		}
		last = update.Text
	}
}

func TestBlock_IdleCountdown(t *testing.T) {
	tests := []struct {
		idleMillis       uint64
		expectedText     string
		expectedSeverity types.Severity
	}{
		{idleMillis: 10_000, expectedText: "00h04m50", expectedSeverity: types.SeverityWarning},
		{idleMillis: 10_999, expectedText: "00h04m50", expectedSeverity: types.SeverityWarning},
		{idleMillis: 120_000, expectedText: "00h03m00", expectedSeverity: types.SeverityWarning},
		{idleMillis: 299_999, expectedText: "00h00m01", expectedSeverity: types.SeverityWarning},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%dms", tt.idleMillis), func(t *testing.T) {
			reader := testutil.NewMockIdleReader(tt.idleMillis)
			block, clock := newTestBlock(t, reader)
			clock.Advance(20 * time.Minute)

			update := block.Update()

			if block.Phase() != PhaseIdle {
				t.Errorf("Phase() = %v, want idle", block.Phase())
			}
			if update.Text != tt.expectedText {
				t.Errorf("Text = %q, want %q", update.Text, tt.expectedText)
			}
			if update.Severity != tt.expectedSeverity {
				t.Errorf("Severity = %v, want %v", update.Severity, tt.expectedSeverity)
			}
		})
	}
}

func TestBlock_AwayCompleteResetsCountup(t *testing.T) {
	reader := testutil.NewMockIdleReader(0)
	block, clock := newTestBlock(t, reader)

	clock.Advance(45 * time.Minute)
	reader.SetMillis(300_000)

	update := block.Update()
	if block.Phase() != PhaseAwayComplete {
		t.Fatalf("Phase() = %v, want away", block.Phase())
	}
	if update.Text != "00h00m00" {
		t.Errorf("Text = %q, want 00h00m00", update.Text)
	}
	if update.Severity != types.SeverityInfo {
		t.Errorf("Severity = %v, want info", update.Severity)
	}

	// The user comes back: the countup starts from the away tick
	clock.Advance(5 * time.Second)
	reader.SetMillis(200)

	update = block.Update()
	if block.Phase() != PhaseActive {
		t.Fatalf("Phase() = %v, want active", block.Phase())
	}
	if update.Text != "00h00m05" {
		t.Errorf("Text = %q, want 00h00m05", update.Text)
	}
}

func TestBlock_DriftCompensation(t *testing.T) {
	reader := testutil.NewMockIdleReader(3_000)
	block, clock := newTestBlock(t, reader)

	// First reading differs from the initial zero and restarts the window
	update := block.Update()
	if block.Phase() != PhaseActive {
		t.Fatalf("Phase() = %v, want active", block.Phase())
	}

	// Frozen for 9s: under the threshold, no compensation
	clock.Advance(9 * time.Second)
	update = block.Update()
	if block.Phase() != PhaseActive {
		t.Fatalf("after 9s stall Phase() = %v, want active", block.Phase())
	}

	// Frozen for 10s: 3s raw + 10s stall
	clock.Advance(1 * time.Second)
	update = block.Update()
	if block.Phase() != PhaseIdle {
		t.Fatalf("after 10s stall Phase() = %v, want idle", block.Phase())
	}
	if update.Text != FormatElapsed(300-13) {
		t.Errorf("Text = %q, want %q", update.Text, FormatElapsed(300-13))
	}

	// The compensated value keeps growing while the reading stays frozen
	clock.Advance(1 * time.Second)
	next := block.Update()
	if next.Text != FormatElapsed(300-14) {
		t.Errorf("Text = %q, want %q", next.Text, FormatElapsed(300-14))
	}
}

func TestBlock_DriftCompensationGrowth(t *testing.T) {
	reader := testutil.NewMockIdleReader(3_000)
	block, clock := newTestBlock(t, reader)
	block.Update()

	// Compensation is recomputed from the window start each tick:
	// raw reading plus the whole stall, never the previous compensated value.
	for _, stall := range []uint64{10, 20, 50, 100, 200} {
		clock.Advance(time.Duration(stall)*time.Second - clock.Now().Sub(testStart))

		update := block.Update()
		want := FormatElapsed(300 - (3 + stall))
		if update.Text != want {
			t.Errorf("stall %ds: Text = %q, want %q", stall, update.Text, want)
		}
	}

	// 3s raw + 297s stall reaches the reset time
	clock.Advance(297*time.Second - clock.Now().Sub(testStart))
	block.Update()
	if block.Phase() != PhaseAwayComplete {
		t.Errorf("Phase() = %v, want away", block.Phase())
	}
}

func TestBlock_ChangedReadingRestartsDriftWindow(t *testing.T) {
	reader := testutil.NewMockIdleReader(3_000)
	block, clock := newTestBlock(t, reader)
	block.Update()

	clock.Advance(15 * time.Second)
	reader.SetMillis(4_000)
	block.Update()
	if block.Phase() != PhaseActive {
		t.Fatalf("Phase() = %v, want active after a fresh reading", block.Phase())
	}
	if block.idleLastReading != 4_000 {
		t.Errorf("idleLastReading = %d, want 4000", block.idleLastReading)
	}
	if !block.idleStartTime.Equal(clock.Now()) {
		t.Errorf("idleStartTime = %v, want %v", block.idleStartTime, clock.Now())
	}
}

func TestBlock_UnsupportedReadsAsZero(t *testing.T) {
	reader := testutil.NewMockIdleReader(0)
	reader.SetError(fmt.Errorf("%w: no extension", idle.ErrUnsupported))
	block, clock := newTestBlock(t, reader)

	clock.Advance(5 * time.Second)
	update := block.Update()

	if block.Phase() != PhaseActive {
		t.Errorf("Phase() = %v, want active", block.Phase())
	}
	if update.Text != "00h00m05" {
		t.Errorf("Text = %q, want 00h00m05", update.Text)
	}
}

func TestBlock_TransientErrorKeepsLastReading(t *testing.T) {
	reader := testutil.NewMockIdleReader(120_000)
	block, clock := newTestBlock(t, reader)
	block.Update()

	clock.Advance(time.Second)
	reader.SetError(errors.New("connection reset"))

	update := block.Update()
	if block.Phase() != PhaseIdle {
		t.Errorf("Phase() = %v, want idle", block.Phase())
	}
	if update.Text != "00h03m00" {
		t.Errorf("Text = %q, want 00h03m00", update.Text)
	}
	if block.idleLastReading != 120_000 {
		t.Errorf("idleLastReading = %d, want 120000", block.idleLastReading)
	}
}

func TestBlock_ClickResetsCountup(t *testing.T) {
	reader := testutil.NewMockIdleReader(100)
	block, clock := newTestBlock(t, reader)

	clock.Advance(40 * time.Minute)
	reader.SetMillis(200)
	if update := block.Update(); update.Severity != types.SeverityWarning {
		t.Fatalf("Severity = %v, want warning before click", update.Severity)
	}

	block.Click()
	clock.Advance(5 * time.Second)
	reader.SetMillis(300)

	update := block.Update()
	if update.Text != "00h00m05" {
		t.Errorf("Text = %q, want 00h00m05", update.Text)
	}
	if update.Severity != types.SeverityInfo {
		t.Errorf("Severity = %v, want info", update.Severity)
	}
}

func TestBlock_ClickDoesNotOverrideIdle(t *testing.T) {
	tests := []struct {
		name          string
		idleMillis    uint64
		expectedPhase Phase
		expectedText  string
	}{
		{name: "idle", idleMillis: 20_000, expectedPhase: PhaseIdle, expectedText: "00h04m40"},
		{name: "away", idleMillis: 400_000, expectedPhase: PhaseAwayComplete, expectedText: "00h00m00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := testutil.NewMockIdleReader(tt.idleMillis)
			block, clock := newTestBlock(t, reader)
			clock.Advance(time.Minute)

			lastReading, idleStart := block.idleLastReading, block.idleStartTime
			block.Click()
			if block.idleLastReading != lastReading || !block.idleStartTime.Equal(idleStart) {
				t.Fatal("Click() must not touch idle tracking")
			}

			update := block.Update()
			if block.Phase() != tt.expectedPhase {
				t.Errorf("Phase() = %v, want %v", block.Phase(), tt.expectedPhase)
			}
			if update.Text != tt.expectedText {
				t.Errorf("Text = %q, want %q", update.Text, tt.expectedText)
			}
		})
	}
}

func TestBlock_CloseReleasesReaderOnce(t *testing.T) {
	reader := testutil.NewMockIdleReader(0)
	clock := testutil.NewFakeClock(testStart)
	block, err := New(testConfig, func() (interfaces.IdleReader, error) {
		return reader, nil
	}, WithClock(clock))
	if err != nil {
		t.Fatalf("New() unexpected error = %v", err)
	}

	if err := block.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := block.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	if reader.CloseCount() != 1 {
		t.Errorf("reader closed %d times, want 1", reader.CloseCount())
	}
}
