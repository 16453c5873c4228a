package dispensing

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func newTestHandler(t *testing.T) (*Handler, *echo.Echo, *engineFixture) {
	t.Helper()
	f := newEngineFixture(t)
	return NewHandler(f.engine), echo.New(), f
}

func TestHandler_SubmitOrder(t *testing.T) {
	h, e, _ := newTestHandler(t)

	body := `{"patient_id":"patient-002","prescriber_id":"dr-1","lines":[{"drug_key":"simvastatin","quantity":30,"dose":20,"frequency":"once daily","days_supply":30}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.SubmitOrder(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	var resp struct {
		Order    Order    `json:"order"`
		Decision *Decision `json:"decision"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Decision.Approved {
		t.Errorf("expected approved decision, alerts: %+v", resp.Decision.Alerts)
	}
	if resp.Order.Status != StatusReadyToDispense {
		t.Errorf("expected ready_to_dispense, got %s", resp.Order.Status)
	}
}

func TestHandler_SubmitOrder_ValidationError(t *testing.T) {
	h, e, _ := newTestHandler(t)

	// Missing patient_id.
	body := `{"prescriber_id":"dr-1","lines":[{"drug_key":"metformin","quantity":30,"dose":500}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.SubmitOrder(c)
	if err == nil {
		t.Fatal("expected error for invalid order")
	}
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400 HTTPError, got %v", err)
	}
}

func TestHandler_GetOrder_NotFound(t *testing.T) {
	h, e, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())

	err := h.GetOrder(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Errorf("expected 404 HTTPError, got %v", err)
	}
}

func TestHandler_GetOrder_InvalidID(t *testing.T) {
	h, e, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	err := h.GetOrder(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400 HTTPError, got %v", err)
	}
}

func TestHandler_DispenseOrder_InvalidTransition(t *testing.T) {
	h, e, f := newTestHandler(t)

	// warfarin + aspirin interaction routes the order to clinical review,
	// so it cannot be dispensed directly.
	order, _, err := f.engine.SubmitOrder(f.ctx, SubmitOrderRequest{
		PatientID:    "patient-002",
		PrescriberID: "dr-1",
		Lines:        []OrderLine{{DrugKey: "warfarin", Quantity: 30, Dose: 5, Frequency: "once daily"}},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	body := `{"operator_id":"rph-1"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(order.ID.String())

	herr := h.DispenseOrder(c)
	he, ok := herr.(*echo.HTTPError)
	if !ok || he.Code != http.StatusConflict {
		t.Errorf("expected 409 HTTPError, got %v", herr)
	}
}

func TestHandler_DispenseOrder_MissingOperator(t *testing.T) {
	h, e, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())

	err := h.DispenseOrder(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400 HTTPError, got %v", err)
	}
}

func TestHandler_CancelOrder(t *testing.T) {
	h, e, f := newTestHandler(t)

	order, _, err := f.engine.SubmitOrder(f.ctx, SubmitOrderRequest{
		PatientID:    "patient-002",
		PrescriberID: "dr-1",
		Lines:        []OrderLine{{DrugKey: "simvastatin", Quantity: 30, Dose: 20, Frequency: "once daily", DaysSupply: 30}},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(order.ID.String())

	if err := h.CancelOrder(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	var cancelled Order
	if err := json.Unmarshal(rec.Body.Bytes(), &cancelled); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if cancelled.Status != StatusCancelled {
		t.Errorf("expected cancelled, got %s", cancelled.Status)
	}
}

func TestHandler_GetWorkQueue_Unknown(t *testing.T) {
	h, e, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("name")
	c.SetParamValues("no-such-queue")

	err := h.GetWorkQueue(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Errorf("expected 404 HTTPError, got %v", err)
	}
}

func TestHandler_NextInQueue_Empty(t *testing.T) {
	h, e, _ := newTestHandler(t)

	body := `{"operator_id":"rph-1"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("name")
	c.SetParamValues(QueueClinical)

	err := h.NextInQueue(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Errorf("expected 404 HTTPError, got %v", err)
	}
}

func TestHandler_CheckInteractions(t *testing.T) {
	h, e, _ := newTestHandler(t)

	body := `{"drugs":["warfarin","aspirin"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/interactions/check", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CheckInteractions(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Interactions []struct {
			Severity string `json:"severity"`
		} `json:"interactions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Interactions) == 0 {
		t.Fatal("expected at least one interaction finding")
	}
}

func TestHandler_CheckInteractions_TooFewDrugs(t *testing.T) {
	h, e, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/interactions/check", strings.NewReader(`{"drugs":["warfarin"]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.CheckInteractions(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400 HTTPError, got %v", err)
	}
}
