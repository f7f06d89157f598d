package labtest

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
	api.GET("/labtests", h.ListLabTests)
	api.GET("/labtests/count", h.CountLabTests)
	api.GET("/labtests/:id", h.GetLabTest)
	api.POST("/labtests", h.AddLabTest)
	api.PUT("/labtests/:id", h.UpdateLabTest)
	api.DELETE("/labtests/:id", h.DeleteLabTest)
	api.GET("/visits/:id/labtests", h.ByVisit)
	api.GET("/patients/:id/labtests", h.ListByPatient)
}

func (h *Handler) AddLabTest(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	t, err := h.svc.Add(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *Handler) GetLabTest(c echo.Context) error {
	id, err := testID(c)
	if err != nil {
		return err
	}
	t, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) UpdateLabTest(c echo.Context) error {
	id, err := testID(c)
	if err != nil {
		return err
	}
	var req UpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	t, err := h.svc.Update(c.Request().Context(), id, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) DeleteLabTest(c echo.Context) error {
	id, err := testID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListLabTests(c echo.Context) error {
	p := pagination.FromContext(c)
	tests, total, err := h.svc.List(c.Request().Context(), p.Limit, p.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(tests, total, p.Limit, p.Offset))
}

func (h *Handler) CountLabTests(c echo.Context) error {
	total, err := h.svc.Count(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]int{"count": total})
}

// ByVisit serves the visit-association read. With a patient_id query
// parameter the combined filter runs first; without one the plain chain does.
func (h *Handler) ByVisit(c echo.Context) error {
	id, err := testID(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if patientID := c.QueryParam("patient_id"); patientID != "" {
		return c.JSON(http.StatusOK, h.svc.ByVisitAndPatient(ctx, id, patientID))
	}
	return c.JSON(http.StatusOK, h.svc.ByVisit(ctx, id))
}

func (h *Handler) ListByPatient(c echo.Context) error {
	tests, err := h.svc.ListByPatient(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	if tests == nil {
		tests = []*LabTest{}
	}
	return c.JSON(http.StatusOK, tests)
}

func testID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrMissingVisitID):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
