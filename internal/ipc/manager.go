package ipc

import (
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matjam/hwcomposer/internal/displayqueue"
	"github.com/matjam/hwcomposer/internal/overlay"
)

// Manager dispatches control-plane commands onto a displayqueue.Queue,
// the same command-channel-plus-Run-loop shape as the teacher's wallpaper
// Manager, retargeted from "which image is showing" to "what is this
// display's power/rotation/color state".
type Manager struct {
	mu    sync.Mutex
	queue *displayqueue.Queue
	cmds  chan Command
	done  chan struct{}

	powerMode string
}

// NewManager returns a Manager driving queue.
func NewManager(queue *displayqueue.Queue) *Manager {
	return &Manager{
		queue:     queue,
		cmds:      make(chan Command, 8),
		done:      make(chan struct{}),
		powerMode: "off",
	}
}

// Stopped is closed once a CommandStop has been processed, letting the
// daemon entrypoint know Run exited because of a shutdown request rather
// than its own stop channel.
func (m *Manager) Stopped() <-chan struct{} {
	return m.done
}

// Enqueue queues cmd for the Run loop to process.
func (m *Manager) Enqueue(cmd Command) {
	m.cmds <- cmd
}

// Status reports the daemon's current high-level state for /status.
func (m *Manager) Status() StatusResponse {
	m.mu.Lock()
	defer m.mu.Unlock()
	return StatusResponse{
		Status:    "ok",
		Message:   "hwcomposerd is running",
		PID:       os.Getpid(),
		Socket:    SocketPath(),
		PowerMode: m.powerMode,
	}
}

// Run blocks, applying queued commands to the display queue until the
// caller closes stop or a CommandStop is dispatched (the daemon entrypoint
// owns the process lifetime; this loop only owns command dispatch).
func (m *Manager) Run(stop <-chan struct{}) {
	log.Info("control-plane dispatcher started")
	for {
		select {
		case <-stop:
			log.Info("control-plane dispatcher stopped")
			return
		case cmd := <-m.cmds:
			if cmd.Type == CommandStop {
				log.Info("stop command received, shutting down")
				m.queue.HandleExit()
				close(m.done)
				return
			}
			m.apply(cmd)
		}
	}
}

func (m *Manager) apply(cmd Command) {
	switch cmd.Type {
	case CommandPower:
		m.applyPower(cmd.Args)
	case CommandRotate:
		m.applyRotate(cmd.Args)
	case CommandGamma:
		m.applyRGBFloat(cmd.Args, m.queue.SetGamma)
	case CommandContrast:
		m.applyRGBUint(cmd.Args, m.queue.SetContrast)
	case CommandBrightness:
		m.applyRGBUint(cmd.Args, m.queue.SetBrightness)
	case CommandClone:
		m.applyClone(cmd.Args)
	case CommandRefresh:
		m.queue.ForceRefresh()
	default:
		log.Errorf("unknown command: %s", cmd.Type)
	}
}

func (m *Manager) applyPower(args []string) {
	if len(args) != 1 {
		log.Error("power command expects exactly one argument")
		return
	}
	var mode displayqueue.PowerMode
	switch args[0] {
	case "off":
		mode = displayqueue.PowerOff
	case "doze":
		mode = displayqueue.PowerDoze
	case "dozesuspend":
		mode = displayqueue.PowerDozeSuspend
	case "on":
		mode = displayqueue.PowerOn
	default:
		log.Errorf("unknown power mode: %s", args[0])
		return
	}
	m.mu.Lock()
	m.powerMode = args[0]
	m.mu.Unlock()
	m.queue.SetPowerMode(mode)
}

func (m *Manager) applyRotate(args []string) {
	if len(args) != 1 {
		log.Error("rotate command expects exactly one argument")
		return
	}
	var t overlay.Transform
	switch args[0] {
	case "0":
		t = overlay.TransformNone
	case "90":
		t = overlay.TransformRotate90
	case "180":
		t = overlay.TransformRotate180
	case "270":
		t = overlay.TransformRotate270
	default:
		log.Errorf("unknown rotation: %s", args[0])
		return
	}
	m.queue.RotateDisplay(t)
}

func (m *Manager) applyRGBFloat(args []string, set func(r, g, b float32)) {
	r, g, b, err := parseRGBFloat(args)
	if err != nil {
		log.Error(err)
		return
	}
	set(r, g, b)
}

func (m *Manager) applyRGBUint(args []string, set func(r, g, b uint32)) {
	r, g, b, err := parseRGBUint(args)
	if err != nil {
		log.Error(err)
		return
	}
	set(r, g, b)
}

func (m *Manager) applyClone(args []string) {
	if len(args) != 1 {
		log.Error("clone command expects exactly one argument")
		return
	}
	m.queue.SetCloneMode(args[0] == "on")
}

func parseRGBFloat(args []string) (r, g, b float32, err error) {
	if len(args) != 3 {
		return 0, 0, 0, fmt.Errorf("expected 3 arguments, got %d", len(args))
	}
	vals := make([]float64, 3)
	for i, a := range args {
		vals[i], err = strconv.ParseFloat(a, 32)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("invalid value %q: %w", a, err)
		}
	}
	return float32(vals[0]), float32(vals[1]), float32(vals[2]), nil
}

func parseRGBUint(args []string) (r, g, b uint32, err error) {
	if len(args) != 3 {
		return 0, 0, 0, fmt.Errorf("expected 3 arguments, got %d", len(args))
	}
	vals := make([]uint64, 3)
	for i, a := range args {
		vals[i], err = strconv.ParseUint(a, 10, 32)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("invalid value %q: %w", a, err)
		}
	}
	return uint32(vals[0]), uint32(vals[1]), uint32(vals[2]), nil
}
