package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/voltride/voltride/internal/errs"
	"github.com/voltride/voltride/internal/validation"
)

type greetRequest struct {
	Name string `json:"name"`
}

func (r *greetRequest) Validate() error {
	if r.Name == "" {
		return validation.CustomValidationErrors{{Field: "name", Message: "is required"}}
	}
	return nil
}

type greetResponse struct {
	Greeting string `json:"greeting"`
}

func newJSONContext(t *testing.T, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/greet", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandleWritesJSONResponse(t *testing.T) {
	fn := Handle(NewHandler(nil), func(c echo.Context, req *greetRequest) (greetResponse, error) {
		return greetResponse{Greeting: "hello " + req.Name}, nil
	}, http.StatusCreated)

	c, rec := newJSONContext(t, `{"name":"rider"}`)

	if err := fn(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}

	var res greetResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if res.Greeting != "hello rider" {
		t.Errorf("greeting = %q, want %q", res.Greeting, "hello rider")
	}
}

func TestHandleRejectsInvalidPayload(t *testing.T) {
	fn := Handle(NewHandler(nil), func(c echo.Context, req *greetRequest) (greetResponse, error) {
		t.Fatal("handler must not run for an invalid payload")
		return greetResponse{}, nil
	}, http.StatusOK)

	c, _ := newJSONContext(t, `{}`)

	err := fn(c)
	var httpErr *errs.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("got %T, want *errs.HTTPError", err)
	}
	if httpErr.Status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", httpErr.Status)
	}
	if len(httpErr.Errors) != 1 || httpErr.Errors[0].Field != "name" {
		t.Errorf("field errors = %+v, want one error on name", httpErr.Errors)
	}
}

func TestHandlePropagatesHandlerError(t *testing.T) {
	want := errs.NewConflictError("already exists", true)
	fn := Handle(NewHandler(nil), func(c echo.Context, req *greetRequest) (greetResponse, error) {
		return greetResponse{}, want
	}, http.StatusOK)

	c, _ := newJSONContext(t, `{"name":"rider"}`)

	err := fn(c)
	if !errors.Is(err, want) {
		t.Fatalf("got %v, want the handler's error", err)
	}
}

func TestHandleAllocatesFreshRequestPerCall(t *testing.T) {
	var seen []*greetRequest
	fn := Handle(NewHandler(nil), func(c echo.Context, req *greetRequest) (greetResponse, error) {
		seen = append(seen, req)
		return greetResponse{}, nil
	}, http.StatusOK)

	for _, body := range []string{`{"name":"first"}`, `{"name":"second"}`} {
		c, _ := newJSONContext(t, body)
		if err := fn(c); err != nil {
			t.Fatalf("handler returned error: %v", err)
		}
	}

	if len(seen) != 2 {
		t.Fatalf("handler ran %d times, want 2", len(seen))
	}
	if seen[0] == seen[1] {
		t.Error("both calls received the same request value")
	}
	if seen[0].Name != "first" || seen[1].Name != "second" {
		t.Errorf("bound names = %q, %q", seen[0].Name, seen[1].Name)
	}
}

func TestHandleNoContent(t *testing.T) {
	fn := HandleNoContent(NewHandler(nil), func(c echo.Context, req *greetRequest) error {
		return nil
	}, http.StatusNoContent)

	c, rec := newJSONContext(t, `{"name":"rider"}`)

	if err := fn(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", rec.Body.String())
	}
}
