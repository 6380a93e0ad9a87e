package testutil

import (
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/activitybar/pkg/types"
)

func TestMockIdleReader(t *testing.T) {
	t.Run("reports configured value", func(t *testing.T) {
		mock := NewMockIdleReader(1500)

		ms, err := mock.IdleMillis()
		if err != nil {
			t.Errorf("IdleMillis() error = %v, want nil", err)
		}
		if ms != 1500 {
			t.Errorf("IdleMillis() = %d, want 1500", ms)
		}
		if mock.Calls() != 1 {
			t.Errorf("Calls() = %d, want 1", mock.Calls())
		}
	})

	t.Run("error then recovery", func(t *testing.T) {
		mock := NewMockIdleReader(0)
		mockErr := errors.New("test error")
		mock.SetError(mockErr)

		if _, err := mock.IdleMillis(); err != mockErr {
			t.Errorf("IdleMillis() error = %v, want %v", err, mockErr)
		}

		mock.SetMillis(10)
		if ms, err := mock.IdleMillis(); err != nil || ms != 10 {
			t.Errorf("IdleMillis() = %d, %v, want 10, nil", ms, err)
		}
	})

	t.Run("counts closes", func(t *testing.T) {
		mock := NewMockIdleReader(0)
		_ = mock.Close()
		_ = mock.Close()

		if mock.CloseCount() != 2 {
			t.Errorf("CloseCount() = %d, want 2", mock.CloseCount())
		}
	})
}

func TestFakeClock(t *testing.T) {
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	clock := NewFakeClock(start)

	if !clock.Now().Equal(start) {
		t.Errorf("Now() = %v, want %v", clock.Now(), start)
	}

	clock.Advance(90 * time.Second)

	if got := clock.Now().Sub(start); got != 90*time.Second {
		t.Errorf("elapsed = %v, want 90s", got)
	}
}

func TestRecordingRenderer(t *testing.T) {
	renderer := NewRecordingRenderer()

	_ = renderer.Render(types.Update{Text: "00h00m01"})
	_ = renderer.Render(types.Update{Text: "00h00m02"})

	if !renderer.WaitForRenders(2, time.Second) {
		t.Fatal("WaitForRenders() timed out")
	}

	renders := renderer.Renders()
	if len(renders) != 2 {
		t.Fatalf("Renders() returned %d, want 2", len(renders))
	}
	if renders[1][0].Text != "00h00m02" {
		t.Errorf("second render text = %q, want 00h00m02", renders[1][0].Text)
	}

	renderer.SetError(errors.New("write failed"))
	if err := renderer.Render(); err == nil {
		t.Error("Render() expected configured error")
	}
}
