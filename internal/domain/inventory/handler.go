package inventory

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	ledger      *Ledger
	horizonDays int
	highDays    int
}

func NewHandler(ledger *Ledger) *Handler {
	return &Handler{ledger: ledger}
}

// SetExpiryHorizons overrides the default alert horizons. Query parameters
// on the alerts endpoint still take precedence per request.
func (h *Handler) SetExpiryHorizons(horizonDays, highPriorityDays int) {
	h.horizonDays = horizonDays
	h.highDays = highPriorityDays
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/inventory", h.List)
	api.GET("/inventory/alerts", h.ExpiryAlerts)
	api.GET("/inventory/forecast", h.Forecast)
	api.GET("/inventory/:key", h.Get)
	api.GET("/inventory/:key/availability", h.Availability)
	api.POST("/inventory/:key/replenish", h.Replenish)
}

func (h *Handler) List(c echo.Context) error {
	items, err := h.ledger.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Get(c echo.Context) error {
	item, err := h.ledger.Get(c.Request().Context(), c.Param("key"))
	if errors.Is(err, ErrItemNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "inventory item not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, item)
}

func (h *Handler) Availability(c echo.Context) error {
	qty, err := strconv.Atoi(c.QueryParam("quantity"))
	if err != nil || qty <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "quantity must be a positive integer")
	}
	av, err := h.ledger.CheckAvailability(c.Request().Context(), c.Param("key"), qty)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, av)
}

type replenishRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) Replenish(c echo.Context) error {
	var req replenishRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Quantity <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "quantity must be a positive integer")
	}
	remaining, err := h.ledger.Replenish(c.Request().Context(), c.Param("key"), req.Quantity)
	if errors.Is(err, ErrItemNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "inventory item not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]any{
		"drug_key":         c.Param("key"),
		"quantity_on_hand": remaining,
	})
}

func (h *Handler) ExpiryAlerts(c echo.Context) error {
	soon, _ := strconv.Atoi(c.QueryParam("horizon_days"))
	if soon <= 0 {
		soon = h.horizonDays
	}
	high, _ := strconv.Atoi(c.QueryParam("high_priority_days"))
	if high <= 0 {
		high = h.highDays
	}
	alerts, err := h.ledger.ExpiryAlerts(c.Request().Context(), time.Now(), soon, high)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if alerts == nil {
		alerts = []ExpiryAlert{}
	}
	return c.JSON(http.StatusOK, alerts)
}

func (h *Handler) Forecast(c echo.Context) error {
	entries, err := h.ledger.Forecast(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if entries == nil {
		entries = []ForecastEntry{}
	}
	return c.JSON(http.StatusOK, entries)
}
