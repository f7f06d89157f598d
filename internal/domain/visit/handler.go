package visit

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/arogith/hms/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/visits", h.ListVisits)
	api.GET("/visits/today", h.ListToday)
	api.GET("/visits/yesterday", h.ListYesterday)
	api.GET("/visits/:id", h.GetVisit)
	api.POST("/visits", h.CreateVisit)
	api.PUT("/visits/:id", h.UpdateVisit)
	api.POST("/visits/backfill-temperatures", h.BackfillTemperatures)
	api.GET("/patients/:id/visits", h.ListByPatient)
	api.GET("/doctors/:id/visits", h.ListByDoctor)
}

func (h *Handler) CreateVisit(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	v, err := h.svc.Create(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *Handler) GetVisit(c echo.Context) error {
	id, err := visitID(c)
	if err != nil {
		return err
	}
	v, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) UpdateVisit(c echo.Context) error {
	id, err := visitID(c)
	if err != nil {
		return err
	}
	var u Update
	if err := c.Bind(&u); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	v, err := h.svc.Update(c.Request().Context(), id, u)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) ListVisits(c echo.Context) error {
	p := pagination.FromContext(c)
	visits, total, err := h.svc.List(c.Request().Context(), p.Limit, p.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(visits, total, p.Limit, p.Offset))
}

func (h *Handler) ListByPatient(c echo.Context) error {
	views, err := h.svc.ListByPatient(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	if views == nil {
		views = []*View{}
	}
	return c.JSON(http.StatusOK, views)
}

func (h *Handler) ListByDoctor(c echo.Context) error {
	visits, err := h.svc.ListByDoctor(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	if visits == nil {
		visits = []*Visit{}
	}
	return c.JSON(http.StatusOK, visits)
}

func (h *Handler) ListToday(c echo.Context) error {
	visits, err := h.svc.ListToday(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	if visits == nil {
		visits = []*Visit{}
	}
	return c.JSON(http.StatusOK, visits)
}

func (h *Handler) ListYesterday(c echo.Context) error {
	visits, err := h.svc.ListYesterday(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	if visits == nil {
		visits = []*Visit{}
	}
	return c.JSON(http.StatusOK, visits)
}

func (h *Handler) BackfillTemperatures(c echo.Context) error {
	count, err := h.svc.BackfillTemperatures(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"updated": count,
		"message": "temperature backfill complete",
	})
}

func visitID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid visit id")
	}
	return id, nil
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrPatientNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrMissingPatient):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
