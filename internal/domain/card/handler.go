package card

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/yashdugar0209-creator/healthkey-sub000/internal/platform/auth"
	redisclient "github.com/yashdugar0209-creator/healthkey-sub000/internal/platform/redis"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the card lifecycle endpoints on an authenticated
// group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.PUT("/patients/:id/card", h.Link)
	g.POST("/cards/:id/report-lost", h.ReportLost)
}

// RegisterAdminRoutes mounts the card block endpoint on the admin group.
func (h *Handler) RegisterAdminRoutes(admin *echo.Group) {
	admin.POST("/cards/:id/block", h.Block)
}

type linkRequest struct {
	CardID string `json:"card_id"`
}

func (h *Handler) Link(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}

	var req linkRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx := c.Request().Context()
	linked, err := h.svc.Link(ctx, auth.UserIDFromContext(ctx), patientID, req.CardID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, linked)
}

func (h *Handler) ReportLost(c echo.Context) error {
	ctx := c.Request().Context()
	card, err := h.svc.ReportLost(ctx, auth.UserIDFromContext(ctx), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, card)
}

func (h *Handler) Block(c echo.Context) error {
	ctx := c.Request().Context()
	card, err := h.svc.Block(ctx, auth.UserIDFromContext(ctx), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, card)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrMissingCardID):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrCardNotFound), errors.Is(err, ErrPatientNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrCardConflict), errors.Is(err, ErrCardInactive):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, redisclient.ErrLockNotAcquired):
		return echo.NewHTTPError(http.StatusConflict, "card busy, retry")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
