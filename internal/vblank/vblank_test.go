package vblank

import (
	"sync/atomic"
	"testing"
	"time"
)

type fakeIdleNotifier struct {
	calls int32
}

func (f *fakeIdleNotifier) HandleIdleCase(inComposition bool) {
	atomic.AddInt32(&f.calls, 1)
}

func TestEnabledInitiallyFalse(t *testing.T) {
	h := New(0, time.Millisecond, nil)
	if h.Enabled() {
		t.Error("a freshly constructed handler should not be running")
	}
}

func TestSetPowerModeOnStartsLoop(t *testing.T) {
	h := New(0, time.Millisecond, nil)
	h.SetPowerMode(PowerOn)
	defer h.SetPowerMode(PowerOff)

	if !h.Enabled() {
		t.Error("SetPowerMode(PowerOn) should start the dispatch loop")
	}
}

func TestSetPowerModeOffStopsLoop(t *testing.T) {
	h := New(0, time.Millisecond, nil)
	h.SetPowerMode(PowerOn)
	h.SetPowerMode(PowerOff)

	if h.Enabled() {
		t.Error("SetPowerMode(PowerOff) should stop the dispatch loop")
	}
}

func TestSetPowerModeOnTwiceIsIdempotent(t *testing.T) {
	h := New(0, time.Millisecond, nil)
	h.SetPowerMode(PowerOn)
	h.SetPowerMode(PowerOn)
	defer h.SetPowerMode(PowerOff)

	if !h.Enabled() {
		t.Error("calling PowerOn twice should leave the loop running")
	}
}

func TestSetPowerModeDozeStopsLoop(t *testing.T) {
	h := New(0, time.Millisecond, nil)
	h.SetPowerMode(PowerOn)
	h.SetPowerMode(PowerDoze)

	if h.Enabled() {
		t.Error("SetPowerMode(PowerDoze) should stop dispatch, only PowerOn runs it")
	}
}

func TestCallbackFiresWhilePoweredOn(t *testing.T) {
	h := New(3, 2*time.Millisecond, nil)

	fired := make(chan int64, 1)
	h.RegisterCallback(func(displayID int, ts int64) {
		if displayID != 3 {
			t.Errorf("callback displayID = %d, want 3", displayID)
		}
		select {
		case fired <- ts:
		default:
		}
	})

	h.SetPowerMode(PowerOn)
	defer h.SetPowerMode(PowerOff)

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for vsync callback to fire")
	}
}

func TestIdleNotifierCalledEachTick(t *testing.T) {
	idle := &fakeIdleNotifier{}
	h := New(0, 2*time.Millisecond, idle)

	h.SetPowerMode(PowerOn)
	defer h.SetPowerMode(PowerOff)

	deadline := time.Now().Add(time.Second)
	for atomic.LoadInt32(&idle.calls) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if atomic.LoadInt32(&idle.calls) == 0 {
		t.Fatal("HandleIdleCase was never called while powered on")
	}
}

func TestStopAndRestart(t *testing.T) {
	h := New(0, time.Millisecond, nil)

	h.SetPowerMode(PowerOn)
	h.SetPowerMode(PowerOff)
	h.SetPowerMode(PowerOn)
	defer h.SetPowerMode(PowerOff)

	if !h.Enabled() {
		t.Error("a handler should be restartable after being stopped")
	}
}
