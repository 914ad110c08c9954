package lab

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicore/clinicore/internal/domain/identity"
	"github.com/clinicore/clinicore/internal/platform/auth"
	"github.com/clinicore/clinicore/pkg/apperr"
	"github.com/clinicore/clinicore/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("/lab-tests", auth.RequireRole(
		identity.RoleDoctor.String(), identity.RoleLabTechnician.String(), identity.RoleAdmin.String()))
	read.GET("", h.List)
	read.GET("/:code", h.Get)

	doc := api.Group("/lab-tests", auth.RequireRole(identity.RoleDoctor.String()))
	doc.POST("", h.Order)
	doc.PATCH("/:code", h.Update)
	doc.DELETE("/:code", h.Delete)

	tech := api.Group("/lab-tests", auth.RequireRole(identity.RoleLabTechnician.String()))
	tech.PUT("/:code/claim", h.Claim)
	tech.PUT("/:code/start", h.Start)
	tech.PUT("/:code/results", h.SubmitResults)

	api.PUT("/lab-tests/:code/cancel", h.Cancel,
		auth.RequireRole(identity.RoleDoctor.String(), identity.RoleLabTechnician.String()))
}

func callerID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid token subject")
	}
	return id, nil
}

func (h *Handler) Order(c echo.Context) error {
	doctorID, err := callerID(c)
	if err != nil {
		return err
	}
	var in OrderInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	t, err := h.svc.Order(c.Request().Context(), doctorID, in)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	f := Filter{Status: c.QueryParam("status"), Query: c.QueryParam("q")}
	if pid := c.QueryParam("patientId"); pid != "" {
		id, err := uuid.Parse(pid)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patientId")
		}
		f.PatientID = id
	}
	tests, total, err := h.svc.List(c.Request().Context(), f, pg.Limit, pg.Offset())
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(tests, total, pg))
}

func (h *Handler) Get(c echo.Context) error {
	t, err := h.svc.GetByCode(c.Request().Context(), c.Param("code"))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) Claim(c echo.Context) error {
	techID, err := callerID(c)
	if err != nil {
		return err
	}
	t, err := h.svc.Claim(c.Request().Context(), c.Param("code"), techID)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) Start(c echo.Context) error {
	techID, err := callerID(c)
	if err != nil {
		return err
	}
	t, err := h.svc.Start(c.Request().Context(), c.Param("code"), techID)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) SubmitResults(c echo.Context) error {
	techID, err := callerID(c)
	if err != nil {
		return err
	}
	var in SubmitResultsInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	t, err := h.svc.SubmitResults(c.Request().Context(), c.Param("code"), techID, in)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) Cancel(c echo.Context) error {
	caller, err := callerID(c)
	if err != nil {
		return err
	}
	t, err := h.svc.Cancel(c.Request().Context(), c.Param("code"), caller)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) Update(c echo.Context) error {
	doctorID, err := callerID(c)
	if err != nil {
		return err
	}
	var in UpdateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	t, err := h.svc.Update(c.Request().Context(), c.Param("code"), doctorID, in)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) Delete(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), c.Param("code")); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}
