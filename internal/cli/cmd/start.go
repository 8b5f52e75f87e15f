package cmd

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	daemon "github.com/sevlyar/go-daemon"
	"github.com/spf13/viper"

	"github.com/matjam/hwcomposer/internal/compositor"
	"github.com/matjam/hwcomposer/internal/displayqueue"
	"github.com/matjam/hwcomposer/internal/ipc"
	"github.com/matjam/hwcomposer/internal/kmsdrm"
	"github.com/matjam/hwcomposer/internal/overlay"
	"github.com/matjam/hwcomposer/internal/planemanager"
	"github.com/matjam/hwcomposer/internal/resourcemanager"
	"github.com/matjam/hwcomposer/internal/vblank"
)

// StartManager brings up the display queue against the configured KMS
// device and blocks serving the control plane until a stop command or
// signal arrives, mirroring the teacher's StartManager shape.
func StartManager() {
	if viper.GetBool("background") && os.Getenv("BACKGROUND_PROCESS") != "1" {
		if err := daemonize(); err != nil {
			log.Fatalf("Failed to daemonize: %v", err)
		}
		return
	}

	log.Infof("StartManager() started in PID: %d", os.Getpid())

	if os.Getenv("BACKGROUND_PROCESS") == "1" {
		setupRotatingLogger()
	}

	if _, err := ipc.GetStatus(); err == nil {
		log.Info("hwcomposerd is already running, exiting")
		os.Exit(0)
	}

	device := viper.GetString("device")
	crtcID := uint32(viper.GetInt("crtc_id"))
	width := int32(viper.GetInt("width"))
	height := int32(viper.GetInt("height"))
	if width == 0 {
		width = 1920
	}
	if height == 0 {
		height = 1080
	}

	log.Infof("Opening %s, crtc %d", device, crtcID)
	display, err := kmsdrm.Open(device, crtcID)
	if err != nil {
		log.Fatalf("Error opening display device: %v", err)
	}

	formats := []uint32{kmsdrm.FormatXRGB8888, kmsdrm.FormatARGB8888}
	planeIDs := viper.GetIntSlice("plane_ids")
	if len(planeIDs) == 0 {
		log.Fatal("No overlay planes configured; set plane_ids in the config file")
	}

	hwPlanes := make([]overlay.PlaneHandle, 0, len(planeIDs))
	for _, id := range planeIDs {
		hwPlanes = append(hwPlanes, display.Plane(uint32(id), formats))
	}

	var cursorPlane overlay.PlaneHandle
	if id := viper.GetInt("cursor_plane_id"); id != 0 {
		cursorPlane = display.Plane(uint32(id), formats)
	}

	rm := resourcemanager.New()
	planes := planemanager.New(hwPlanes, cursorPlane)
	gpu := compositor.New()
	queue := displayqueue.New(0)
	vsync := vblank.New(0, 16*time.Millisecond, queue)

	if err := queue.Initialize(rm, width, height, planes, display, gpu, vblankPowerAdapter{vsync}); err != nil {
		log.Fatalf("Error initializing display queue: %v", err)
	}

	manager := ipc.NewManager(queue)

	go func() {
		log.Info("Starting socket server")
		if err := ipc.Start(manager); err != nil {
			log.Errorf("control plane exited: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	stop := make(chan struct{})
	go func() {
		select {
		case s := <-sig:
			log.Infof("received signal %v, shutting down", s)
		case <-manager.Stopped():
		}
		close(stop)
	}()

	manager.Run(stop)

	queue.HandleExit()
	if err := display.Close(); err != nil {
		log.Errorf("Error closing display device: %v", err)
	}

	sockDir := os.Getenv("XDG_RUNTIME_DIR")
	if sockDir == "" {
		sockDir = os.TempDir()
	}
	os.Remove(sockDir + "/hwcomposerd.sock")
	log.Info("hwcomposerd exited")
}

// vblankPowerAdapter presents a vblank.Handler as a displayqueue.Vblank,
// converting between the two packages' PowerMode types by ordinal value.
type vblankPowerAdapter struct{ *vblank.Handler }

func (a vblankPowerAdapter) SetPowerMode(mode displayqueue.PowerMode) {
	a.Handler.SetPowerMode(vblank.PowerMode(mode))
}

// daemonize forks hwcomposerd into the background via go-daemon, setting
// BACKGROUND_PROCESS so the child routes its logs through the rotating
// file writer instead of stderr.
func daemonize() error {
	home := os.Getenv("HOME")
	runDir := filepath.Join(home, ".local", "share", "hwcomposerd")
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return err
	}

	os.Setenv("BACKGROUND_PROCESS", "1")

	cntxt := &daemon.Context{
		PidFileName: filepath.Join(runDir, "hwcomposerd.pid"),
		PidFilePerm: 0644,
		WorkDir:     "/",
		Umask:       027,
	}

	child, err := cntxt.Reborn()
	if err != nil {
		return err
	}
	if child != nil {
		log.Infof("hwcomposerd started in background, PID %d", child.Pid)
		return nil
	}
	defer cntxt.Release()

	StartManager()
	return nil
}

func setupRotatingLogger() {
	home := os.Getenv("HOME")
	logDir := filepath.Join(home, ".local", "share", "hwcomposerd")
	logPath := filepath.Join(logDir, "hwcomposerd.log")

	writer, err := rotatelogs.New(
		logPath+".%Y%m%d%H%M",
		rotatelogs.WithLinkName(logPath),
		rotatelogs.WithMaxAge(7*24*time.Hour),
		rotatelogs.WithRotationSize(10*1024*1024),
		rotatelogs.WithRotationTime(24*time.Hour),
	)
	if err != nil {
		log.Fatalf("failed to configure log rotation: %v", err)
	}

	log.SetOutput(writer)
	if !viper.GetBool("debug") {
		log.SetLevel(log.InfoLevel)
	}
}
