package emergency

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the break-glass endpoints. These are deliberately
// unauthenticated; first responders have no directory account.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/emergency/access", h.GrantAccess)
	g.GET("/emergency/access/:id/valid", h.CheckAccess)
	g.POST("/emergency/access/:id/revoke", h.RevokeAccess)
}

func (h *Handler) GrantAccess(c echo.Context) error {
	var in GrantInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	result, err := h.svc.GrantAccess(c.Request().Context(), in)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, result)
}

type validResponse struct {
	GrantID   uuid.UUID `json:"grant_id"`
	Valid     bool      `json:"valid"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (h *Handler) CheckAccess(c echo.Context) error {
	grantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid grant id")
	}

	valid, grant, err := h.svc.CheckAccess(c.Request().Context(), grantID)
	if err != nil {
		return httpError(err)
	}

	status := http.StatusOK
	if !valid {
		status = http.StatusGone
	}
	return c.JSON(status, validResponse{GrantID: grant.ID, Valid: valid, ExpiresAt: grant.ExpiresAt})
}

type revokeRequest struct {
	AccessorID string `json:"accessor_id"`
}

func (h *Handler) RevokeAccess(c echo.Context) error {
	grantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid grant id")
	}

	var req revokeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	grant, err := h.svc.RevokeAccess(c.Request().Context(), req.AccessorID, grantID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, grant)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrMissingCardID),
		errors.Is(err, ErrMissingAccessor),
		errors.Is(err, ErrMissingReason):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrGrantNotFound), errors.Is(err, ErrCardNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrCardInactive):
		return echo.NewHTTPError(http.StatusGone, err.Error())
	case errors.Is(err, ErrQuotaExceeded):
		return echo.NewHTTPError(http.StatusTooManyRequests, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
