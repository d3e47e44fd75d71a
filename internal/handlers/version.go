package handlers

import (
	"net/http"

	"github.com/jsiebens/memberd/internal/version"
	"github.com/labstack/echo/v4"
)

func Version(c echo.Context) error {
	v, r := version.GetReleaseInfo()
	resp := map[string]string{
		"version":  v,
		"revision": r,
	}
	return c.JSON(http.StatusOK, resp)
}
