package audit

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/yashdugar0209-creator/healthkey-sub000/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the read-only audit endpoints on the admin group.
func (h *Handler) RegisterRoutes(admin *echo.Group) {
	admin.GET("/audit", h.ListEntries)
}

func (h *Handler) ListEntries(c echo.Context) error {
	pg := pagination.FromContext(c)
	f := Filter{
		Actor:   c.QueryParam("actor"),
		ActorID: c.QueryParam("actor_id"),
		Action:  c.QueryParam("action"),
		Subject: c.QueryParam("subject"),
	}
	items, total, err := h.svc.List(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
