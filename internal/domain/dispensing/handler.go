package dispensing

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/rxguard/rxguard/internal/domain/verification"
	"github.com/rxguard/rxguard/pkg/pagination"
)

type Handler struct {
	engine *Engine
}

func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/orders", h.SubmitOrder)
	api.GET("/orders", h.ListOrders)
	api.GET("/orders/:id", h.GetOrder)
	api.POST("/orders/:id/dispense", h.DispenseOrder)
	api.POST("/orders/:id/cancel", h.CancelOrder)
	api.GET("/work-queues/:name", h.GetWorkQueue)
	api.POST("/work-queues/:name/next", h.NextInQueue)
	api.POST("/interactions/check", h.CheckInteractions)
}

func (h *Handler) SubmitOrder(c echo.Context) error {
	var req SubmitOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	order, decision, err := h.engine.SubmitOrder(c.Request().Context(), req)
	if errors.Is(err, ErrValidation) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, map[string]any{
		"order":    order,
		"decision": decision,
	})
}

func (h *Handler) ListOrders(c echo.Context) error {
	pg := pagination.FromContext(c)
	orders, total, err := h.engine.ListOrders(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(orders, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetOrder(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid order id")
	}
	order, err := h.engine.GetOrder(c.Request().Context(), id)
	if errors.Is(err, ErrOrderNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, order)
}

type dispenseRequest struct {
	OperatorID string `json:"operator_id"`
}

func (h *Handler) DispenseOrder(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid order id")
	}
	var req dispenseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.OperatorID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "operator_id is required")
	}
	result, err := h.engine.DispenseOrder(c.Request().Context(), id, req.OperatorID)
	if errors.Is(err, ErrOrderNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	}
	if errors.Is(err, ErrInvalidTransition) {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	status := http.StatusOK
	if !result.Success {
		status = http.StatusConflict
	}
	return c.JSON(status, result)
}

func (h *Handler) CancelOrder(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid order id")
	}
	order, err := h.engine.CancelOrder(c.Request().Context(), id)
	if errors.Is(err, ErrOrderNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	}
	if errors.Is(err, ErrInvalidTransition) {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, order)
}

func (h *Handler) GetWorkQueue(c echo.Context) error {
	operatorID := c.QueryParam("operator_id")
	orders, err := h.engine.GetWorkQueue(c.Request().Context(), c.Param("name"), operatorID)
	if errors.Is(err, ErrUnknownQueue) {
		return echo.NewHTTPError(http.StatusNotFound, "unknown work queue")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, orders)
}

type nextRequest struct {
	OperatorID string `json:"operator_id"`
}

func (h *Handler) NextInQueue(c echo.Context) error {
	var req nextRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.OperatorID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "operator_id is required")
	}
	order, err := h.engine.NextInQueue(c.Request().Context(), c.Param("name"), req.OperatorID)
	if errors.Is(err, ErrUnknownQueue) {
		return echo.NewHTTPError(http.StatusNotFound, "unknown work queue")
	}
	if errors.Is(err, ErrOrderNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "queue is empty")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, order)
}

type interactionCheckRequest struct {
	Drugs []string `json:"drugs"`
}

func (h *Handler) CheckInteractions(c echo.Context) error {
	var req interactionCheckRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if len(req.Drugs) < 2 {
		return echo.NewHTTPError(http.StatusBadRequest, "at least two drugs are required")
	}
	findings := h.engine.CheckInteractions(c.Request().Context(), req.Drugs)
	if findings == nil {
		findings = []verification.InteractionFinding{}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"interactions": findings,
	})
}
