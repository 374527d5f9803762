package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog_service/internal/service"
	"github.com/Skotchmaster/blog_service/internal/transport"
)

type AdminHTTP struct {
	Svc *service.AuthService
}

func userIDParam(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	return uint(id), nil
}

func (h *AdminHTTP) UpdateRole(c echo.Context) error {
	id, err := userIDParam(c)
	if err != nil {
		return err
	}

	var req transport.UpdateRoleRequest
	if err := c.Bind(&req); err != nil || req.Role.Role == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid role")
	}

	user, err := h.Svc.UpdateRole(c.Request().Context(), id, req.Role.Role)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *AdminHTTP) Deactivate(c echo.Context) error {
	id, err := userIDParam(c)
	if err != nil {
		return err
	}

	user, err := h.Svc.DeactivateUser(c.Request().Context(), id)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, user)
}
