package doctor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

type mockRepo struct {
	doctors map[string]*Doctor
}

func (m *mockRepo) GetByID(ctx context.Context, id string) (*Doctor, error) {
	d, ok := m.doctors[id]
	if !ok {
		return nil, ErrNotFound
	}
	return d, nil
}

func (m *mockRepo) List(ctx context.Context) ([]*Doctor, error) {
	var out []*Doctor
	for _, d := range m.doctors {
		out = append(out, d)
	}
	return out, nil
}

func TestGetDoctorHandler(t *testing.T) {
	e := echo.New()
	repo := &mockRepo{doctors: map[string]*Doctor{
		"D1": {DoctorID: "D1", Name: "Dr. Rao", Specialization: "Cardiology"},
	}}
	h := NewHandler(repo)

	req := httptest.NewRequest(http.MethodGet, "/api/doctors/D1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("D1")

	if err := h.GetDoctor(c); err != nil {
		t.Fatalf("GetDoctor() error = %v", err)
	}

	var d Doctor
	if err := json.Unmarshal(rec.Body.Bytes(), &d); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if d.Name != "Dr. Rao" {
		t.Fatalf("doctor = %+v", d)
	}
}

func TestGetDoctorHandlerNotFound(t *testing.T) {
	e := echo.New()
	h := NewHandler(&mockRepo{doctors: map[string]*Doctor{}})

	req := httptest.NewRequest(http.MethodGet, "/api/doctors/D9", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("D9")

	err := h.GetDoctor(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Fatalf("GetDoctor() = %v, want 404", err)
	}
}

func TestListDoctorsHandlerEmptyIsArray(t *testing.T) {
	e := echo.New()
	h := NewHandler(&mockRepo{doctors: map[string]*Doctor{}})

	req := httptest.NewRequest(http.MethodGet, "/api/doctors", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ListDoctors(c); err != nil {
		t.Fatalf("ListDoctors() error = %v", err)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Fatalf("body = %q, want empty array", body)
	}
}
