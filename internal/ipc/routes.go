package ipc

import "github.com/labstack/echo/v4"

// RegisterRoutes wires the control-plane HTTP surface: a single generic
// command endpoint plus a status read, mirroring what the hwcomposerd
// client subcommands actually call.
func RegisterRoutes(e *echo.Echo, manager ManagerInterface) {
	e.GET("/status", statusHandler(manager))
	e.POST("/command", commandHandler(manager))
}
