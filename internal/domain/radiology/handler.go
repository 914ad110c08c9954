package radiology

import (
	"net/http"
	"time"

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
	read := api.Group("/radiology-orders", auth.RequireRole(
		identity.RoleDoctor.String(), identity.RoleRadiologist.String(), identity.RoleAdmin.String()))
	read.GET("", h.List)
	read.GET("/:ref", h.Get)

	doc := api.Group("/radiology-orders", auth.RequireRole(identity.RoleDoctor.String()))
	doc.POST("", h.Create)
	doc.DELETE("/:code", h.Delete)

	rad := api.Group("/radiology-orders", auth.RequireRole(identity.RoleRadiologist.String()))
	rad.PUT("/:code/assign", h.AssignSelf)
	rad.PUT("/:code/report", h.SubmitReport)

	api.PUT("/radiology-orders/:code/status", h.UpdateStatus,
		auth.RequireRole(identity.RoleDoctor.String(), identity.RoleRadiologist.String()))
	api.PUT("/radiology-orders/:code/schedule", h.Schedule,
		auth.RequireRole(identity.RoleDoctor.String(), identity.RoleRadiologist.String()))
}

func callerID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid token subject")
	}
	return id, nil
}

func (h *Handler) Create(c echo.Context) error {
	doctorID, err := callerID(c)
	if err != nil {
		return err
	}
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	o, err := h.svc.Create(c.Request().Context(), doctorID, in)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, o)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	f := Filter{
		Status:   c.QueryParam("status"),
		Modality: c.QueryParam("modality"),
	}
	if pid := c.QueryParam("patientId"); pid != "" {
		id, err := uuid.Parse(pid)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patientId")
		}
		f.PatientID = id
	}
	if c.QueryParam("assignedToMe") == "true" {
		me, err := callerID(c)
		if err != nil {
			return err
		}
		f.PerformedBy = me
	}
	if from := c.QueryParam("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid from")
		}
		f.From = &t
	}
	if to := c.QueryParam("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid to")
		}
		f.To = &t
	}
	orders, total, err := h.svc.List(c.Request().Context(), f, pg.Limit, pg.Offset())
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(orders, total, pg))
}

func (h *Handler) Get(c echo.Context) error {
	o, err := h.svc.Get(c.Request().Context(), c.Param("ref"))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	caller, err := callerID(c)
	if err != nil {
		return err
	}
	var in struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	o, err := h.svc.UpdateStatus(c.Request().Context(), c.Param("code"), caller, in.Status)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) Schedule(c echo.Context) error {
	caller, err := callerID(c)
	if err != nil {
		return err
	}
	var in struct {
		ScheduledAt *time.Time `json:"scheduledAt"`
	}
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	o, err := h.svc.Schedule(c.Request().Context(), c.Param("code"), caller, in.ScheduledAt)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) AssignSelf(c echo.Context) error {
	radID, err := callerID(c)
	if err != nil {
		return err
	}
	o, err := h.svc.AssignSelf(c.Request().Context(), c.Param("code"), radID)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) SubmitReport(c echo.Context) error {
	radID, err := callerID(c)
	if err != nil {
		return err
	}
	var in SubmitReportInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	o, err := h.svc.SubmitReport(c.Request().Context(), c.Param("code"), radID, in)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) Delete(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), c.Param("code")); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}
