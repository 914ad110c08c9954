package nursing

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
	read := api.Group("/nursing-records", auth.RequireRole(
		identity.RoleNurse.String(), identity.RoleDoctor.String(), identity.RoleAdmin.String()))
	read.GET("", h.List)
	read.GET("/:ref", h.Get)

	nurse := api.Group("/nursing-records", auth.RequireRole(identity.RoleNurse.String()))
	nurse.POST("/vitals", h.RecordVitals)
	nurse.POST("/observations", h.AddObservation)
	nurse.POST("/medications", h.AdministerMedication)
	nurse.DELETE("/:code", h.Delete)
}

func callerID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid token subject")
	}
	return id, nil
}

func (h *Handler) create(c echo.Context, fn func(ctx echo.Context, nurseID uuid.UUID, in RecordInput) (*NursingRecord, error)) error {
	nurseID, err := callerID(c)
	if err != nil {
		return err
	}
	var in RecordInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rec, err := fn(c, nurseID, in)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *Handler) RecordVitals(c echo.Context) error {
	return h.create(c, func(c echo.Context, nurseID uuid.UUID, in RecordInput) (*NursingRecord, error) {
		return h.svc.RecordVitals(c.Request().Context(), nurseID, in)
	})
}

func (h *Handler) AddObservation(c echo.Context) error {
	return h.create(c, func(c echo.Context, nurseID uuid.UUID, in RecordInput) (*NursingRecord, error) {
		return h.svc.AddObservation(c.Request().Context(), nurseID, in)
	})
}

func (h *Handler) AdministerMedication(c echo.Context) error {
	return h.create(c, func(c echo.Context, nurseID uuid.UUID, in RecordInput) (*NursingRecord, error) {
		return h.svc.AdministerMedication(c.Request().Context(), nurseID, in)
	})
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	f := Filter{Type: c.QueryParam("type")}
	if pid := c.QueryParam("patientUserId"); pid != "" {
		id, err := uuid.Parse(pid)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patientUserId")
		}
		f.PatientID = id
	}
	out, total, err := h.svc.List(c.Request().Context(), f, pg.Limit, pg.Offset())
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(out, total, pg))
}

func (h *Handler) Get(c echo.Context) error {
	rec, err := h.svc.Get(c.Request().Context(), c.Param("ref"))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) Delete(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), c.Param("code")); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}
