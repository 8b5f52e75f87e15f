package ipc

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/spf13/viper"

	hwcomposer "github.com/matjam/hwcomposer"
)

// GET /status
func statusHandler(m ManagerInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		status := m.Status()
		status.Version = strings.Trim(hwcomposer.Version, "\n\r ")
		status.Config = viper.ConfigFileUsed()
		return c.JSONPretty(http.StatusOK, status, "  ")
	}
}

// POST /command
func commandHandler(m ManagerInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		var cmd Command
		if err := c.Bind(&cmd); err != nil {
			return c.JSON(http.StatusBadRequest, Response{Status: "error", Message: "invalid command body"})
		}
		if cmd.Type == "" {
			return c.JSON(http.StatusBadRequest, Response{Status: "error", Message: "missing command type"})
		}
		m.Enqueue(cmd)
		return c.JSON(http.StatusOK, Response{Status: "ok", Message: string(cmd.Type) + " queued"})
	}
}
