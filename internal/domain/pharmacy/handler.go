package pharmacy

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
	read := api.Group("/pharmacy/stock", auth.RequireRole(
		identity.RolePharmacist.String(), identity.RoleDoctor.String(), identity.RoleAdmin.String()))
	read.GET("", h.List)
	read.GET("/:ref", h.Get)

	ph := api.Group("/pharmacy/stock", auth.RequireRole(identity.RolePharmacist.String()))
	ph.POST("", h.CreateItem)
	ph.PATCH("/:id", h.UpdateItem)
	ph.PUT("/:id/restock", h.Restock)
	ph.PUT("/:id/decrement", h.Decrement)
}

func callerID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid token subject")
	}
	return id, nil
}

func itemID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid stock item id")
	}
	return id, nil
}

func (h *Handler) CreateItem(c echo.Context) error {
	caller, err := callerID(c)
	if err != nil {
		return err
	}
	var in CreateItemInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	item, err := h.svc.CreateItem(c.Request().Context(), caller, in)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, item)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	f := Filter{
		Status:  c.QueryParam("status"),
		Query:   c.QueryParam("q"),
		LowOnly: c.QueryParam("low") == "true",
	}
	items, total, err := h.svc.List(c.Request().Context(), f, pg.Limit, pg.Offset())
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) Get(c echo.Context) error {
	item, err := h.svc.Get(c.Request().Context(), c.Param("ref"))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *Handler) UpdateItem(c echo.Context) error {
	caller, err := callerID(c)
	if err != nil {
		return err
	}
	id, err := itemID(c)
	if err != nil {
		return err
	}
	var in UpdateItemInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	item, err := h.svc.UpdateItem(c.Request().Context(), id, caller, in)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, item)
}

type amountInput struct {
	Amount int `json:"amount"`
}

func (h *Handler) Restock(c echo.Context) error {
	id, err := itemID(c)
	if err != nil {
		return err
	}
	var in amountInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	item, err := h.svc.Restock(c.Request().Context(), id, in.Amount)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *Handler) Decrement(c echo.Context) error {
	id, err := itemID(c)
	if err != nil {
		return err
	}
	var in amountInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	item, err := h.svc.DecrementStock(c.Request().Context(), id, in.Amount)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, item)
}
