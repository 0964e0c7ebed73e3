package identity

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/yashdugar0209-creator/healthkey-sub000/internal/platform/auth"
	"github.com/yashdugar0209-creator/healthkey-sub000/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the public auth endpoints.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/auth/register", h.Register)
	g.POST("/auth/login", h.Login)
}

// RegisterAdminRoutes mounts the approval workflow endpoints on the admin
// group.
func (h *Handler) RegisterAdminRoutes(admin *echo.Group) {
	admin.GET("/registrations", h.ListRegistrations)
	admin.POST("/users/:id/decision", h.Decide)
}

type registerRequest struct {
	Role     Role                   `json:"role"`
	Patient  *RegisterPatientInput  `json:"patient,omitempty"`
	Doctor   *RegisterDoctorInput   `json:"doctor,omitempty"`
	Hospital *RegisterHospitalInput `json:"hospital,omitempty"`
}

func (h *Handler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx := c.Request().Context()

	var (
		reg *Registration
		err error
	)
	switch req.Role {
	case RolePatient:
		if req.Patient == nil {
			return echo.NewHTTPError(http.StatusBadRequest, "patient payload required")
		}
		reg, err = h.svc.RegisterPatient(ctx, *req.Patient)
	case RoleDoctor:
		if req.Doctor == nil {
			return echo.NewHTTPError(http.StatusBadRequest, "doctor payload required")
		}
		reg, err = h.svc.RegisterDoctor(ctx, *req.Doctor)
	case RoleHospital:
		if req.Hospital == nil {
			return echo.NewHTTPError(http.StatusBadRequest, "hospital payload required")
		}
		reg, err = h.svc.RegisterHospital(ctx, *req.Hospital)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, ErrInvalidRole.Error())
	}
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, reg)
}

type loginRequest struct {
	Role       Role   `json:"role"`
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	session, err := h.svc.Login(c.Request().Context(), req.Role, req.Identifier, req.Password)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, session)
}

type decisionRequest struct {
	Decision Decision `json:"decision"`
}

func (h *Handler) Decide(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	var req decisionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	adminID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing identity")
	}

	user, err := h.svc.Decide(c.Request().Context(), adminID, userID, req.Decision)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, user)
}

func (h *Handler) ListRegistrations(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListRegistrations(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

// httpError maps domain errors onto HTTP status codes.
func httpError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidRole),
		errors.Is(err, ErrMissingName),
		errors.Is(err, ErrMissingIdentifier),
		errors.Is(err, ErrMissingPassword),
		errors.Is(err, ErrInvalidDecision):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrPendingApproval), errors.Is(err, ErrAccountRejected):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrProfileNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrIdentifierTaken), errors.Is(err, ErrStateConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
