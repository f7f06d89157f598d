package patient

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func newTestHandler(repo *mockRepo) *Handler {
	svc, _ := newTestService(repo, &mockAllocator{}, &mockVisitCreator{}, &capturePublisher{})
	return NewHandler(svc)
}

func TestRegisterPatientHandlerCreated(t *testing.T) {
	e := echo.New()
	h := newTestHandler(newMockRepo())

	body := `{"surname":"Kumar","name":"Ravi","national_id":"123456789012"}`
	req := httptest.NewRequest(http.MethodPost, "/api/patients/register", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.RegisterPatient(c); err != nil {
		t.Fatalf("RegisterPatient() error = %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}

	var result RegistrationResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !result.IsNewPatient || result.Patient.PatientID == "" {
		t.Fatalf("result = %+v", result)
	}
}

func TestRegisterPatientHandlerReturning(t *testing.T) {
	e := echo.New()
	repo := newMockRepo()
	repo.add(&Patient{PatientID: "007", Name: "Ravi", Surname: "Kumar", NationalID: "123456789012"})
	h := newTestHandler(repo)

	body := `{"surname":"Kumar","name":"Ravi","national_id":"123456789012"}`
	req := httptest.NewRequest(http.MethodPost, "/api/patients/register", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.RegisterPatient(c); err != nil {
		t.Fatalf("RegisterPatient() error = %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for returning patient", rec.Code)
	}
}

func TestRegisterPatientHandlerValidationError(t *testing.T) {
	e := echo.New()
	h := newTestHandler(newMockRepo())

	body := `{"surname":"Kumar","name":"Ravi","national_id":"bad"}`
	req := httptest.NewRequest(http.MethodPost, "/api/patients/register", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.RegisterPatient(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("RegisterPatient() = %v, want 400", err)
	}
}

func TestRegisterPatientHandlerConflict(t *testing.T) {
	e := echo.New()
	repo := newMockRepo()
	repo.add(&Patient{PatientID: "007", Name: "Sita", Surname: "Sharma", NationalID: "123456789012"})
	h := newTestHandler(repo)

	body := `{"surname":"Kumar","name":"Ravi","national_id":"123456789012"}`
	req := httptest.NewRequest(http.MethodPost, "/api/patients/register", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.RegisterPatient(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusConflict {
		t.Fatalf("RegisterPatient() = %v, want 409", err)
	}
}

func TestGetPatientHandler(t *testing.T) {
	e := echo.New()
	repo := newMockRepo()
	repo.add(&Patient{PatientID: "001", Name: "Ravi", Surname: "Kumar", NationalID: "123456789012"})
	h := newTestHandler(repo)

	req := httptest.NewRequest(http.MethodGet, "/api/patients/001", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("001")

	if err := h.GetPatient(c); err != nil {
		t.Fatalf("GetPatient() error = %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var view View
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if view.PatientID != "001" {
		t.Fatalf("view = %+v", view)
	}
}

func TestGetPatientHandlerNotFound(t *testing.T) {
	e := echo.New()
	h := newTestHandler(newMockRepo())

	req := httptest.NewRequest(http.MethodGet, "/api/patients/999", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("999")

	err := h.GetPatient(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Fatalf("GetPatient() = %v, want 404", err)
	}
}

func TestListPatientsHandlerPaginated(t *testing.T) {
	e := echo.New()
	repo := newMockRepo()
	repo.add(&Patient{PatientID: "001", Name: "Ravi", Surname: "Kumar", NationalID: "123456789012"})
	repo.add(&Patient{PatientID: "002", Name: "Sita", Surname: "Sharma", NationalID: "222222222222"})
	h := newTestHandler(repo)

	req := httptest.NewRequest(http.MethodGet, "/api/patients?limit=1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ListPatients(c); err != nil {
		t.Fatalf("ListPatients() error = %v", err)
	}

	var resp struct {
		Data    []View `json:"data"`
		Total   int    `json:"total"`
		HasMore bool   `json:"has_more"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 2 || len(resp.Data) != 1 || !resp.HasMore {
		t.Fatalf("response = %+v", resp)
	}
}

func TestSearchPatientsHandlerRequiresQuery(t *testing.T) {
	e := echo.New()
	h := newTestHandler(newMockRepo())

	req := httptest.NewRequest(http.MethodGet, "/api/patients/search", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.SearchPatients(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("SearchPatients() = %v, want 400", err)
	}
}

func TestListByCategoryHandlerUnknown(t *testing.T) {
	e := echo.New()
	h := newTestHandler(newMockRepo())

	req := httptest.NewRequest(http.MethodGet, "/api/patients/category/last-week", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("category")
	c.SetParamValues("last-week")

	err := h.ListByCategory(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("ListByCategory() = %v, want 400", err)
	}
}

func TestUpdatePatientHandler(t *testing.T) {
	e := echo.New()
	repo := newMockRepo()
	repo.add(&Patient{PatientID: "001", Name: "Ravi", Surname: "Kumar", NationalID: "123456789012"})
	h := newTestHandler(repo)

	req := httptest.NewRequest(http.MethodPut, "/api/patients/001", strings.NewReader(`{"address":"New Town"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("001")

	if err := h.UpdatePatient(c); err != nil {
		t.Fatalf("UpdatePatient() error = %v", err)
	}

	var view View
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if view.Address != "New Town" {
		t.Fatalf("Address = %q", view.Address)
	}
}
