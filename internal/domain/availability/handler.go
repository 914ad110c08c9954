package availability

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
	doc := api.Group("/availability", auth.RequireRole(identity.RoleDoctor.String()))
	doc.POST("", h.AddSlot)
	doc.GET("", h.ListMine)
	doc.DELETE("/:id", h.RemoveSlot)

	api.GET("/doctors/:doctorId/availability", h.ListDoctorAvailable,
		auth.RequireRole(identity.RolePatient.String(), identity.RoleReceptionist.String(), identity.RoleAdmin.String()))
}

func callerID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid token subject")
	}
	return id, nil
}

func parseTimeParam(c echo.Context, name string) (*time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
}

func (h *Handler) AddSlot(c echo.Context) error {
	doctorID, err := callerID(c)
	if err != nil {
		return err
	}
	var in AddSlotInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	slot, err := h.svc.AddSlot(c.Request().Context(), doctorID, in)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, slot)
}

func (h *Handler) ListMine(c echo.Context) error {
	doctorID, err := callerID(c)
	if err != nil {
		return err
	}
	from, err := parseTimeParam(c, "from")
	if err != nil {
		return err
	}
	to, err := parseTimeParam(c, "to")
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	slots, total, err := h.svc.ListMine(c.Request().Context(), doctorID, c.QueryParam("status"), from, to, pg.Limit, pg.Offset())
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(slots, total, pg))
}

func (h *Handler) RemoveSlot(c echo.Context) error {
	doctorID, err := callerID(c)
	if err != nil {
		return err
	}
	slotID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.RemoveSlot(c.Request().Context(), doctorID, slotID); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListDoctorAvailable(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("doctorId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctorId")
	}
	from, err := parseTimeParam(c, "from")
	if err != nil {
		return err
	}
	to, err := parseTimeParam(c, "to")
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	slots, total, err := h.svc.ListDoctorAvailable(c.Request().Context(), doctorID, from, to, pg.Limit, pg.Offset())
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(slots, total, pg))
}
