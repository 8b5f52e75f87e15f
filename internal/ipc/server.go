package ipc

import (
	"net"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"github.com/matjam/hwcomposer/internal/middleware"
)

// SocketPath returns the unix domain socket path the control plane binds
// to, honoring XDG_RUNTIME_DIR the same way the teacher's ipc package does.
func SocketPath() string {
	dir := os.Getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		dir = os.TempDir()
	}
	return dir + "/hwcomposerd.sock"
}

// Start serves the control plane over a unix socket until the process
// exits; it blocks the caller, matching the teacher's ipc.Start shape.
func Start(manager ManagerInterface) error {
	sockPath := SocketPath()
	if _, err := os.Stat(sockPath); err == nil {
		_ = os.Remove(sockPath)
	}

	listener, err := net.Listen("unix", sockPath)
	if err != nil {
		return err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Listener = listener

	e.Use(middleware.CharmLog())

	RegisterRoutes(e, manager)

	log.Infof("control plane listening on %s", sockPath)
	server := new(http.Server)
	return e.StartServer(server)
}
