package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type serviceStatus struct {
	Service string `json:"service"`
	Status  string `json:"status"`
}

// Root answers GET / with the service name.
//
// @Summary      Service banner
// @Tags         meta
// @Produce      json
// @Success      200  {object}  serviceStatus
// @Router       / [get]
func Root(service string) echo.HandlerFunc {
	body := serviceStatus{Service: service, Status: "running"}
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, body)
	}
}
