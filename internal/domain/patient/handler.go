package patient

import (
	"errors"
	"net/http"

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
	api.GET("/patients", h.ListPatients)
	api.GET("/patients/search", h.SearchPatients)
	api.GET("/patients/category/:category", h.ListByCategory)
	api.GET("/patients/:id", h.GetPatient)
	api.POST("/patients/register", h.RegisterPatient)
	api.PUT("/patients/:id", h.UpdatePatient)
}

func (h *Handler) RegisterPatient(c echo.Context) error {
	var req RegistrationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.svc.Register(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}

	status := http.StatusCreated
	if !result.IsNewPatient {
		status = http.StatusOK
	}
	return c.JSON(status, result)
}

func (h *Handler) GetPatient(c echo.Context) error {
	view, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *Handler) ListPatients(c echo.Context) error {
	p := pagination.FromContext(c)
	views, total, err := h.svc.List(c.Request().Context(), p.Limit, p.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(views, total, p.Limit, p.Offset))
}

func (h *Handler) SearchPatients(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query parameter q is required")
	}
	p := pagination.FromContext(c)
	views, total, err := h.svc.Search(c.Request().Context(), q, p.Limit, p.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(views, total, p.Limit, p.Offset))
}

func (h *Handler) ListByCategory(c echo.Context) error {
	views, err := h.svc.ListByCategory(c.Request().Context(), c.Param("category"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, views)
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	var req UpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	view, err := h.svc.Update(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, view)
}

// httpError maps service sentinels to HTTP status codes.
func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrIdentityConflict), errors.Is(err, ErrDuplicateNationalID):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrMissingName),
		errors.Is(err, ErrMissingSurname),
		errors.Is(err, ErrInvalidNationalID),
		errors.Is(err, ErrInvalidPhone),
		errors.Is(err, ErrInvalidPhoto),
		errors.Is(err, ErrUnknownCategory):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
